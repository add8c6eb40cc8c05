package trains

import (
	"errors"
	"net/http"

	"railbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateTrain handles POST /api/v1/admin/trains
func (c *Controller) CreateTrain(ctx *gin.Context) {
	var req CreateTrainRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	train, err := c.service.CreateTrain(ctx.Request.Context(), &req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create train", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Train created", train, nil)
}

// ListTrains handles GET /api/v1/trains
func (c *Controller) ListTrains(ctx *gin.Context) {
	trains, err := c.service.ListTrains(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list trains", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trains retrieved", trains, nil)
}

// GetTrain handles GET /api/v1/trains/:id
func (c *Controller) GetTrain(ctx *gin.Context) {
	trainID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid train ID", nil, nil)
		return
	}

	train, err := c.service.GetTrain(ctx.Request.Context(), trainID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Train not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get train", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Train retrieved", train, nil)
}

// AddCoach handles POST /api/v1/admin/trains/:id/coaches
func (c *Controller) AddCoach(ctx *gin.Context) {
	trainID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid train ID", nil, nil)
		return
	}

	var req CreateCoachRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	coach, err := c.service.AddCoach(ctx.Request.Context(), trainID, &req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Train not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to add coach", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Coach added", coach, nil)
}

// ListCoaches handles GET /api/v1/trains/:id/coaches
func (c *Controller) ListCoaches(ctx *gin.Context) {
	trainID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid train ID", nil, nil)
		return
	}

	coaches, err := c.service.CoachesByTrain(ctx.Request.Context(), trainID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list coaches", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Coaches retrieved", coaches, nil)
}
