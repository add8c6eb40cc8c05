package inventory

import (
	"errors"
	"net/http"
	"time"

	"railbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	repo Repository
}

func NewController(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// CreateSeatsRequest represents a bulk seat creation request
type CreateSeatsRequest struct {
	Seats []struct {
		SeatNumber           string `json:"seat_number" binding:"required"`
		BerthNumber          string `json:"berth_number"`
		SeatType             string `json:"seat_type" binding:"required,oneof=WINDOW AISLE MIDDLE SIDE_UPPER SIDE_LOWER"`
		BerthType            string `json:"berth_type" binding:"omitempty,oneof=LOWER MIDDLE UPPER SIDE_LOWER SIDE_UPPER"`
		IsLadiesQuota        bool   `json:"is_ladies_quota"`
		IsSeniorCitizenQuota bool   `json:"is_senior_citizen_quota"`
		IsHandicappedQuota   bool   `json:"is_handicapped_quota"`
	} `json:"seats" binding:"required,min=1,dive"`
}

// CreateSeats handles POST /api/v1/admin/coaches/:id/seats
func (c *Controller) CreateSeats(ctx *gin.Context) {
	coachID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid coach ID", nil, nil)
		return
	}

	var req CreateSeatsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	seats := make([]Seat, 0, len(req.Seats))
	for _, s := range req.Seats {
		seats = append(seats, Seat{
			CoachID:              coachID,
			SeatNumber:           s.SeatNumber,
			BerthNumber:          s.BerthNumber,
			SeatType:             SeatType(s.SeatType),
			BerthType:            BerthType(s.BerthType),
			Status:               SeatStatusAvailable,
			IsLadiesQuota:        s.IsLadiesQuota,
			IsSeniorCitizenQuota: s.IsSeniorCitizenQuota,
			IsHandicappedQuota:   s.IsHandicappedQuota,
		})
	}

	if err := c.repo.CreateSeats(ctx.Request.Context(), seats); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats created", seats, nil)
}

// ListSeats handles GET /api/v1/coaches/:id/seats
func (c *Controller) ListSeats(ctx *gin.Context) {
	coachID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid coach ID", nil, nil)
		return
	}

	seats, err := c.repo.SeatsByCoach(ctx.Request.Context(), coachID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats retrieved", seats, nil)
}

// GetAvailability handles GET /api/v1/coaches/:id/availability?date=2026-09-01
func (c *Controller) GetAvailability(ctx *gin.Context) {
	coachID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid coach ID", nil, nil)
		return
	}

	journeyDate, err := time.Parse("2006-01-02", ctx.Query("date"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "date must be YYYY-MM-DD", nil, nil)
		return
	}

	seats, err := c.repo.AvailableSeats(ctx.Request.Context(), coachID, journeyDate)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to query availability", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Available seats retrieved", gin.H{
		"coach_id":        coachID,
		"journey_date":    journeyDate.Format("2006-01-02"),
		"available_count": len(seats),
		"seats":           seats,
	}, nil)
}

// GetSeat handles GET /api/v1/seats/:id
func (c *Controller) GetSeat(ctx *gin.Context) {
	seatID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid seat ID", nil, nil)
		return
	}

	seat, err := c.repo.GetSeat(ctx.Request.Context(), seatID)
	if err != nil {
		if errors.Is(err, ErrSeatNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Seat not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get seat", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat retrieved", seat, nil)
}
