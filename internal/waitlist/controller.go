package waitlist

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

// JoinQueue handles POST /api/v1/waitlist
func (c *Controller) JoinQueue(ctx *gin.Context) {
	var req JoinQueueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	entry, err := c.service.JoinQueue(ctx.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyQueued):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Already queued for this journey", nil, err.Error())
		case errors.Is(err, ErrTrainNotBookable):
			response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Train not open for waitlisting", nil, err.Error())
		default:
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to join waitlist", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Joined waitlist", entry, nil)
}

// CancelEntry handles DELETE /api/v1/waitlist/:id
func (c *Controller) CancelEntry(ctx *gin.Context) {
	entryID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid entry ID", nil, nil)
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req CancelEntryRequest
	_ = ctx.ShouldBindJSON(&req) // body optional

	if err := c.service.CancelEntry(ctx.Request.Context(), userID, entryID, req.Reason); err != nil {
		switch {
		case errors.Is(err, ErrEntryNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Entry not found", nil, nil)
		case errors.Is(err, ErrNotOwner):
			response.RespondJSON(ctx, "error", http.StatusForbidden, "Entry does not belong to user", nil, nil)
		case errors.Is(err, ErrNotCancelable):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Entry cannot be cancelled", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to cancel entry", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Entry cancelled", nil, nil)
}

// GetPosition handles GET /api/v1/waitlist/:id/position
func (c *Controller) GetPosition(ctx *gin.Context) {
	entryID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid entry ID", nil, nil)
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	position, err := c.service.GetQueuePosition(ctx.Request.Context(), userID, entryID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEntryNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Entry not found", nil, nil)
		case errors.Is(err, ErrNotOwner):
			response.RespondJSON(ctx, "error", http.StatusForbidden, "Entry does not belong to user", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get position", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Queue position retrieved", position, nil)
}

// GetRacStatus handles GET /api/v1/waitlist/:id/rac
func (c *Controller) GetRacStatus(ctx *gin.Context) {
	entryID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid entry ID", nil, nil)
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	rac, err := c.service.GetRacStatus(ctx.Request.Context(), userID, entryID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEntryNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "No RAC record for entry", nil, nil)
		case errors.Is(err, ErrNotOwner):
			response.RespondJSON(ctx, "error", http.StatusForbidden, "Entry does not belong to user", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get RAC status", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "RAC status retrieved", rac, nil)
}

// ListMyEntries handles GET /api/v1/waitlist
func (c *Controller) ListMyEntries(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	entries, err := c.service.ListUserEntries(ctx.Request.Context(), userID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list entries", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Entries retrieved", entries, nil)
}

// currentUserID pulls the authenticated user from the gin context set by the
// JWT middleware. Writes the error response itself on failure.
func currentUserID(ctx *gin.Context) (uuid.UUID, bool) {
	raw, exists := ctx.Get("user_id")
	if !exists {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw.(string))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid user ID", nil, nil)
		return uuid.Nil, false
	}
	return userID, true
}
