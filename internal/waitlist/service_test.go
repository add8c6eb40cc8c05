package waitlist

import (
	"context"
	"testing"
	"time"

	"railbook/internal/notifications"
	"railbook/internal/trains"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTrainService serves one train with one coach
type fakeTrainService struct {
	train *trains.Train
	coach *trains.Coach
}

func (f *fakeTrainService) GetTrain(_ context.Context, id uuid.UUID) (*trains.Train, error) {
	if f.train == nil || f.train.ID != id {
		return nil, trains.ErrNotFound
	}
	return f.train, nil
}

func (f *fakeTrainService) GetCoach(_ context.Context, id uuid.UUID) (*trains.Coach, error) {
	if f.coach == nil || f.coach.ID != id {
		return nil, trains.ErrNotFound
	}
	return f.coach, nil
}

// fakeRepository keeps entries in memory and numbers them per call order
type fakeRepository struct {
	entries    map[uuid.UUID]*WaitlistEntry
	racEntries map[uuid.UUID]*RacEntry
	nextNumber int
	position   int
	queueLen   int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		entries:    make(map[uuid.UUID]*WaitlistEntry),
		racEntries: make(map[uuid.UUID]*RacEntry),
	}
}

func (f *fakeRepository) CreateEntry(_ context.Context, entry *WaitlistEntry) error {
	f.nextNumber++
	entry.ID = uuid.New()
	entry.JourneyDate = NormalizeJourneyDate(entry.JourneyDate)
	entry.Status = WaitlistStatusPending
	entry.WaitlistNumber = f.nextNumber
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeRepository) GetEntry(_ context.Context, id uuid.UUID) (*WaitlistEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

func (f *fakeRepository) GetRacEntry(_ context.Context, id uuid.UUID) (*RacEntry, error) {
	rac, ok := f.racEntries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return rac, nil
}

func (f *fakeRepository) RacByWaitlistEntry(_ context.Context, waitlistEntryID uuid.UUID) (*RacEntry, error) {
	for _, rac := range f.racEntries {
		if rac.WaitlistEntryID == waitlistEntryID {
			return rac, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (f *fakeRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]WaitlistEntry, error) {
	var out []WaitlistEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeRepository) HasOpenEntry(_ context.Context, userID, trainID, _ uuid.UUID, journeyDate time.Time) (bool, error) {
	for _, e := range f.entries {
		if e.UserID == userID && e.TrainID == trainID &&
			e.JourneyDate.Equal(NormalizeJourneyDate(journeyDate)) &&
			(e.Status == WaitlistStatusPending || e.Status == WaitlistStatusRac) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) ActiveWaitlistQueue(_ context.Context, _ uuid.UUID, _ time.Time) ([]WaitlistEntry, error) {
	return nil, nil
}

func (f *fakeRepository) ActiveRacQueue(_ context.Context, _ uuid.UUID, _ time.Time) ([]RacEntry, error) {
	return nil, nil
}

func (f *fakeRepository) ActiveRacCount(_ context.Context, _ uuid.UUID, _ time.Time) (int, error) {
	return 0, nil
}

func (f *fakeRepository) QueuePosition(_ context.Context, _ *WaitlistEntry) (int, int, error) {
	return f.position, f.queueLen, nil
}

func (f *fakeRepository) PromoteToRac(_ context.Context, _, _ uuid.UUID) (*RacEntry, *notifications.OutboxRecord, error) {
	return nil, nil, ErrEntryNotFound
}

func (f *fakeRepository) CancelWaitlistEntry(_ context.Context, entry *WaitlistEntry, reason string) error {
	if entry.Status != WaitlistStatusPending {
		return ErrNotCancelable
	}
	now := time.Now()
	entry.Status = WaitlistStatusCancelled
	entry.CancelledAt = &now
	entry.CancellationReason = &reason
	return nil
}

func (f *fakeRepository) CancelRacEntry(_ context.Context, rac *RacEntry, _ string) error {
	if rac.Status != RacStatusRac {
		return ErrNotCancelable
	}
	now := time.Now()
	rac.Status = RacStatusCancelled
	rac.CancelledAt = &now
	if wl, ok := f.entries[rac.WaitlistEntryID]; ok {
		wl.Status = WaitlistStatusCancelled
		wl.CancelledAt = &now
	}
	return nil
}

func (f *fakeRepository) ExpirePendingEntries(_ context.Context, now time.Time, _ int) (int, error) {
	expired := 0
	for _, e := range f.entries {
		if e.Status == WaitlistStatusPending && now.After(e.ExpiryTime) {
			e.Status = WaitlistStatusExpired
			expired++
		}
	}
	return expired, nil
}

func (f *fakeRepository) AutoCancelDepartedRac(_ context.Context, _ time.Time, _ int) (int, error) {
	return 0, nil
}

func testService(t *testing.T) (Service, *fakeRepository, *fakeTrainService) {
	t.Helper()
	repo := newFakeRepository()
	ts := &fakeTrainService{
		train: &trains.Train{
			ID:            uuid.New(),
			TrainNumber:   "12951",
			Name:          "Mumbai Rajdhani Express",
			DepartureTime: "17:00",
			Status:        trains.TrainStatusActive,
			IsRunning:     true,
		},
	}
	ts.coach = &trains.Coach{
		ID:          uuid.New(),
		TrainID:     ts.train.ID,
		CoachNumber: "S1",
		CoachType:   trains.CoachTypeSleeper,
		TotalSeats:  72,
	}
	return NewService(repo, ts, nil), repo, ts
}

func validJoinRequest(ts *fakeTrainService) *JoinQueueRequest {
	return &JoinQueueRequest{
		TrainID:        ts.train.ID,
		CoachID:        ts.coach.ID,
		JourneyDate:    time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
		QuotaType:      QuotaGeneral,
		PassengerCount: 1,
	}
}

func TestJoinQueueCreatesPendingEntry(t *testing.T) {
	svc, repo, ts := testService(t)
	userID := uuid.New()

	req := validJoinRequest(ts)
	req.IsSeniorCitizen = true

	resp, err := svc.JoinQueue(context.Background(), userID, req)
	require.NoError(t, err)

	assert.Equal(t, WaitlistStatusPending, resp.Status)
	assert.Equal(t, 1, resp.WaitlistNumber)
	assert.Equal(t, 150, resp.PriorityScore)

	stored := repo.entries[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, userID, stored.UserID)

	// expiry is pinned ExpiryLeadWindow before the resolved departure
	journeyDate, _ := time.Parse("2006-01-02", req.JourneyDate)
	departure, err := ts.train.DepartureAt(NormalizeJourneyDate(journeyDate))
	require.NoError(t, err)
	assert.True(t, stored.ExpiryTime.Equal(departure.Add(-ExpiryLeadWindow)))
}

func TestJoinQueueRejectsBadPassengerCount(t *testing.T) {
	svc, _, ts := testService(t)

	for _, count := range []int{0, 7} {
		req := validJoinRequest(ts)
		req.PassengerCount = count

		_, err := svc.JoinQueue(context.Background(), uuid.New(), req)
		require.Error(t, err, "count %d", count)
		assert.Contains(t, err.Error(), "invalid join request")
	}
}

func TestJoinQueueRejectsMissingTrain(t *testing.T) {
	svc, _, ts := testService(t)

	req := validJoinRequest(ts)
	req.TrainID = uuid.Nil

	_, err := svc.JoinQueue(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid join request")
}

func TestJoinQueueRejectsInvalidQuota(t *testing.T) {
	svc, _, ts := testService(t)

	req := validJoinRequest(ts)
	req.QuotaType = "FIRST_CLASS"

	_, err := svc.JoinQueue(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quota type")
}

func TestJoinQueueRejectsMalformedDate(t *testing.T) {
	svc, _, ts := testService(t)

	req := validJoinRequest(ts)
	req.JourneyDate = "31-12-2026"

	_, err := svc.JoinQueue(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid journey date")
}

func TestJoinQueueRejectsInactiveTrain(t *testing.T) {
	svc, _, ts := testService(t)
	ts.train.Status = trains.TrainStatusMaintenance

	_, err := svc.JoinQueue(context.Background(), uuid.New(), validJoinRequest(ts))
	assert.ErrorIs(t, err, ErrTrainNotBookable)
}

func TestJoinQueueRejectsCoachFromAnotherTrain(t *testing.T) {
	svc, _, ts := testService(t)
	ts.coach.TrainID = uuid.New()

	_, err := svc.JoinQueue(context.Background(), uuid.New(), validJoinRequest(ts))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong to train")
}

func TestJoinQueueRejectsDepartedJourney(t *testing.T) {
	svc, _, ts := testService(t)

	req := validJoinRequest(ts)
	req.JourneyDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	_, err := svc.JoinQueue(context.Background(), uuid.New(), req)
	assert.ErrorIs(t, err, ErrTrainNotBookable)
}

func TestJoinQueueRejectsDuplicateOpenEntry(t *testing.T) {
	svc, _, ts := testService(t)
	userID := uuid.New()

	_, err := svc.JoinQueue(context.Background(), userID, validJoinRequest(ts))
	require.NoError(t, err)

	_, err = svc.JoinQueue(context.Background(), userID, validJoinRequest(ts))
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestJoinQueueNumbersEntriesSequentially(t *testing.T) {
	svc, _, ts := testService(t)

	first, err := svc.JoinQueue(context.Background(), uuid.New(), validJoinRequest(ts))
	require.NoError(t, err)
	second, err := svc.JoinQueue(context.Background(), uuid.New(), validJoinRequest(ts))
	require.NoError(t, err)

	assert.Equal(t, 1, first.WaitlistNumber)
	assert.Equal(t, 2, second.WaitlistNumber)
}

func TestCancelEntryRequiresOwnership(t *testing.T) {
	svc, _, ts := testService(t)

	resp, err := svc.JoinQueue(context.Background(), uuid.New(), validJoinRequest(ts))
	require.NoError(t, err)

	err = svc.CancelEntry(context.Background(), uuid.New(), resp.ID, "not mine")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCancelEntryClosesPendingEntry(t *testing.T) {
	svc, repo, ts := testService(t)
	userID := uuid.New()

	resp, err := svc.JoinQueue(context.Background(), userID, validJoinRequest(ts))
	require.NoError(t, err)

	require.NoError(t, svc.CancelEntry(context.Background(), userID, resp.ID, "change of plans"))

	stored := repo.entries[resp.ID]
	assert.Equal(t, WaitlistStatusCancelled, stored.Status)
	require.NotNil(t, stored.CancellationReason)
	assert.Equal(t, "change of plans", *stored.CancellationReason)
}

func TestCancelEntryReleasesRacHold(t *testing.T) {
	svc, repo, ts := testService(t)
	userID := uuid.New()

	resp, err := svc.JoinQueue(context.Background(), userID, validJoinRequest(ts))
	require.NoError(t, err)

	// promote the entry out-of-band, as a sweep would
	entry := repo.entries[resp.ID]
	entry.Status = WaitlistStatusRac
	seatID := uuid.New()
	rac := &RacEntry{
		ID:              uuid.New(),
		UserID:          userID,
		TrainID:         entry.TrainID,
		CoachID:         entry.CoachID,
		SeatID:          &seatID,
		WaitlistEntryID: entry.ID,
		JourneyDate:     entry.JourneyDate,
		RacNumber:       1,
		Status:          RacStatusRac,
		QuotaType:       entry.QuotaType,
	}
	repo.racEntries[rac.ID] = rac

	require.NoError(t, svc.CancelEntry(context.Background(), userID, resp.ID, ""))

	assert.Equal(t, RacStatusCancelled, rac.Status)
	assert.Equal(t, WaitlistStatusCancelled, entry.Status)
}

func TestCancelEntryRejectsTerminalEntry(t *testing.T) {
	svc, repo, ts := testService(t)
	userID := uuid.New()

	resp, err := svc.JoinQueue(context.Background(), userID, validJoinRequest(ts))
	require.NoError(t, err)
	repo.entries[resp.ID].Status = WaitlistStatusConfirmed

	err = svc.CancelEntry(context.Background(), userID, resp.ID, "")
	assert.ErrorIs(t, err, ErrNotCancelable)
}

func TestGetQueuePositionReportsChance(t *testing.T) {
	svc, repo, ts := testService(t)
	userID := uuid.New()

	resp, err := svc.JoinQueue(context.Background(), userID, validJoinRequest(ts))
	require.NoError(t, err)
	repo.position = 80
	repo.queueLen = 150

	pos, err := svc.GetQueuePosition(context.Background(), userID, resp.ID)
	require.NoError(t, err)

	assert.Equal(t, 80, pos.Position)
	assert.Equal(t, 150, pos.QueueLength)
	assert.Equal(t, "medium", pos.ConfirmationChance.Band)
	assert.Equal(t, 60, pos.ConfirmationChance.Percent)
}

func TestGetQueuePositionOmitsChanceWhenOutOfQueue(t *testing.T) {
	svc, repo, ts := testService(t)
	userID := uuid.New()

	resp, err := svc.JoinQueue(context.Background(), userID, validJoinRequest(ts))
	require.NoError(t, err)

	// The entry left the open queue between joining and asking.
	repo.entries[resp.ID].Status = WaitlistStatusRac
	repo.position = 0
	repo.queueLen = 12

	pos, err := svc.GetQueuePosition(context.Background(), userID, resp.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, pos.Position)
	assert.Equal(t, WaitlistStatusRac, pos.Status)
	assert.Empty(t, pos.ConfirmationChance.Band)
	assert.Zero(t, pos.ConfirmationChance.Percent)
}

func TestGetRacStatusReturnsHold(t *testing.T) {
	svc, repo, ts := testService(t)
	userID := uuid.New()

	resp, err := svc.JoinQueue(context.Background(), userID, validJoinRequest(ts))
	require.NoError(t, err)

	entry := repo.entries[resp.ID]
	entry.Status = WaitlistStatusRac
	seatID := uuid.New()
	rac := &RacEntry{
		ID:              uuid.New(),
		UserID:          userID,
		TrainID:         entry.TrainID,
		CoachID:         entry.CoachID,
		SeatID:          &seatID,
		WaitlistEntryID: entry.ID,
		JourneyDate:     entry.JourneyDate,
		RacNumber:       3,
		Status:          RacStatusRac,
		QuotaType:       entry.QuotaType,
	}
	repo.racEntries[rac.ID] = rac

	got, err := svc.GetRacStatus(context.Background(), userID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, rac.ID, got.ID)
	assert.Equal(t, 3, got.RacNumber)
	require.NotNil(t, got.SeatID)
	assert.Equal(t, seatID, *got.SeatID)
}

func TestProcessExpiredEntriesExpiresPastDue(t *testing.T) {
	svc, repo, ts := testService(t)

	resp, err := svc.JoinQueue(context.Background(), uuid.New(), validJoinRequest(ts))
	require.NoError(t, err)
	repo.entries[resp.ID].ExpiryTime = time.Now().Add(-time.Minute)

	count, err := svc.ProcessExpiredEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, WaitlistStatusExpired, repo.entries[resp.ID].Status)
}
