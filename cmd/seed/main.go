package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"railbook/internal/inventory"
	"railbook/internal/shared/config"
	"railbook/internal/shared/database"
	"railbook/internal/trains"
	"railbook/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting RailBook Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Delete in reverse dependency order
	tables := []string{
		"notification_logs",
		"event_outbox",
		"bookings",
		"rac_entries",
		"waitlist_entries",
		"queue_sequences",
		"seats",
		"coaches",
		"trains",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	if _, err := s.SeedUsers(); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	trainIDs, err := s.SeedTrains()
	if err != nil {
		return fmt.Errorf("failed to seed trains: %w", err)
	}

	if err := s.SeedCoachesAndSeats(trainIDs); err != nil {
		return fmt.Errorf("failed to seed coaches and seats: %w", err)
	}

	// Clear Redis cache to ensure fresh state
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedUsers creates 1 admin and 3 passengers, one of them a senior citizen
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	// Hash password for all users (using "qwerty")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
		senior    bool
	}{
		{"admin", "Admin", "User", "admin@railbook.in", users.RoleAdmin, false},
		{"user1", "Arjun", "Mehta", "arjun.mehta@example.com", users.RoleUser, false},
		{"user2", "Priya", "Nair", "priya.nair@example.com", users.RoleUser, false},
		{"senior", "Ramesh", "Iyer", "ramesh.iyer@example.com", users.RoleUser, true},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:              uuid.New(),
			FirstName:       userData.firstName,
			LastName:        userData.lastName,
			Email:           userData.email,
			Password:        string(hashedPassword),
			Role:            userData.role,
			IsSeniorCitizen: userData.senior,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedTrains creates a couple of daily trains
func (s *Seeder) SeedTrains() (map[string]uuid.UUID, error) {
	fmt.Println("  🚂 Seeding trains...")

	trainIDs := make(map[string]uuid.UUID)

	trainsData := []struct {
		key           string
		number        string
		name          string
		source        string
		dest          string
		departureTime string
	}{
		{"rajdhani", "12951", "Mumbai Rajdhani Express", "Mumbai Central", "New Delhi", "17:00"},
		{"shatabdi", "12009", "Shatabdi Express", "Mumbai Central", "Ahmedabad", "06:25"},
	}

	for _, trainData := range trainsData {
		train := trains.Train{
			ID:            uuid.New(),
			TrainNumber:   trainData.number,
			Name:          trainData.name,
			SourceStation: trainData.source,
			DestStation:   trainData.dest,
			DepartureTime: trainData.departureTime,
			Status:        trains.TrainStatusActive,
			IsRunning:     true,
		}

		if err := s.db.PostgreSQL.Create(&train).Error; err != nil {
			return nil, fmt.Errorf("failed to create train %s: %w", trainData.number, err)
		}

		trainIDs[trainData.key] = train.ID
		fmt.Printf("    ✅ Created train: %s %s\n", train.TrainNumber, train.Name)
	}

	return trainIDs, nil
}

// SeedCoachesAndSeats adds coaches to every train and fills them with seats
func (s *Seeder) SeedCoachesAndSeats(trainIDs map[string]uuid.UUID) error {
	fmt.Println("  💺 Seeding coaches and seats...")

	coachesData := []struct {
		number     string
		coachType  trains.CoachType
		totalSeats int
	}{
		{"S1", trains.CoachTypeSleeper, 72},
		{"S2", trains.CoachTypeSleeper, 72},
		{"B1", trains.CoachTypeAC3, 64},
		{"A1", trains.CoachTypeAC2, 48},
	}

	for _, trainID := range trainIDs {
		for _, coachData := range coachesData {
			coach := trains.Coach{
				ID:          uuid.New(),
				TrainID:     trainID,
				CoachNumber: coachData.number,
				CoachType:   coachData.coachType,
				TotalSeats:  coachData.totalSeats,
			}
			if err := s.db.PostgreSQL.Create(&coach).Error; err != nil {
				return fmt.Errorf("failed to create coach %s: %w", coachData.number, err)
			}

			seats := buildSeats(coach.ID, coachData.totalSeats)
			if err := s.db.PostgreSQL.CreateInBatches(seats, 100).Error; err != nil {
				return fmt.Errorf("failed to create seats for coach %s: %w", coachData.number, err)
			}
			fmt.Printf("    ✅ Created coach %s with %d seats\n", coachData.number, coachData.totalSeats)
		}
	}

	return nil
}

// buildSeats lays a coach out in 8-berth bays: six main berths then two side
// berths, the Indian Railways sleeper pattern.
func buildSeats(coachID uuid.UUID, total int) []inventory.Seat {
	bay := []struct {
		berth inventory.BerthType
		seat  inventory.SeatType
	}{
		{inventory.BerthTypeLower, inventory.SeatTypeWindow},
		{inventory.BerthTypeMiddle, inventory.SeatTypeMiddle},
		{inventory.BerthTypeUpper, inventory.SeatTypeMiddle},
		{inventory.BerthTypeLower, inventory.SeatTypeAisle},
		{inventory.BerthTypeMiddle, inventory.SeatTypeMiddle},
		{inventory.BerthTypeUpper, inventory.SeatTypeMiddle},
		{inventory.BerthTypeSideLower, inventory.SeatTypeSideLower},
		{inventory.BerthTypeSideUpper, inventory.SeatTypeSideUpper},
	}

	seats := make([]inventory.Seat, 0, total)
	for i := 0; i < total; i++ {
		slot := bay[i%len(bay)]
		seats = append(seats, inventory.Seat{
			ID:          uuid.New(),
			CoachID:     coachID,
			SeatNumber:  fmt.Sprintf("%d", i+1),
			BerthNumber: fmt.Sprintf("%d", i+1),
			SeatType:    slot.seat,
			BerthType:   slot.berth,
			Status:      inventory.SeatStatusAvailable,
			// Reserve the first bay's lower berths for senior citizens and the
			// second bay for the ladies quota.
			IsSeniorCitizenQuota: i < 8 && slot.berth == inventory.BerthTypeLower,
			IsLadiesQuota:        i >= 8 && i < 16,
		})
	}
	return seats
}
