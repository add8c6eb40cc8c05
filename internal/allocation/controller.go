package allocation

import (
	"context"
	"errors"
	"net/http"
	"time"

	"railbook/internal/notifications"
	"railbook/internal/shared/utils/response"
	"railbook/internal/trains"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	scheduler *Scheduler
}

func NewController(scheduler *Scheduler) *Controller {
	return &Controller{scheduler: scheduler}
}

// requestContext tags the request context with a correlation id so events
// emitted by a manually triggered sweep trace back to the API call. The
// caller's X-Request-ID header is used when it is a UUID.
func requestContext(ctx *gin.Context) context.Context {
	id, err := uuid.Parse(ctx.GetHeader("X-Request-ID"))
	if err != nil {
		id = uuid.New()
	}
	return notifications.WithCorrelationID(ctx.Request.Context(), id)
}

// TriggerTrainSweep handles POST /api/v1/admin/sweeps/trains/:id
func (c *Controller) TriggerTrainSweep(ctx *gin.Context) {
	trainID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid train ID", nil, nil)
		return
	}

	result, err := c.scheduler.TriggerTrainSweep(requestContext(ctx), trainID)
	if err != nil {
		if errors.Is(err, trains.ErrNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Train not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Sweep failed", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Sweep completed", result, nil)
}

// TriggerTrainPromotion handles POST /api/v1/admin/sweeps/trains/:id/promotions?date=YYYY-MM-DD
func (c *Controller) TriggerTrainPromotion(ctx *gin.Context) {
	trainID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid train ID", nil, nil)
		return
	}

	date, err := time.Parse("2006-01-02", ctx.Query("date"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid or missing date, expected YYYY-MM-DD", nil, nil)
		return
	}

	result, err := c.scheduler.TriggerTrainPromotion(requestContext(ctx), trainID, date)
	if err != nil {
		if errors.Is(err, trains.ErrNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Train not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Promotion sweep failed", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Promotion sweep completed", result, nil)
}

// TriggerUnitSweep handles POST /api/v1/admin/sweeps/coaches/:id?date=YYYY-MM-DD
func (c *Controller) TriggerUnitSweep(ctx *gin.Context) {
	coachID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid coach ID", nil, nil)
		return
	}

	date, err := time.Parse("2006-01-02", ctx.Query("date"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid or missing date, expected YYYY-MM-DD", nil, nil)
		return
	}

	result, err := c.scheduler.TriggerUnitSweep(requestContext(ctx), coachID, date)
	if err != nil {
		if errors.Is(err, trains.ErrNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Coach not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Sweep failed", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Sweep completed", result, nil)
}

// GetStatus handles GET /api/v1/admin/sweeps/status
func (c *Controller) GetStatus(ctx *gin.Context) {
	response.RespondJSON(ctx, "success", http.StatusOK, "Scheduler status", c.scheduler.Status(), nil)
}
