package notifications

import (
	"net/http"
	"strconv"

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

// ListMyNotifications handles GET /api/v1/notifications
func (c *Controller) ListMyNotifications(ctx *gin.Context) {
	raw, exists := ctx.Get("user_id")
	if !exists {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}
	userID, err := uuid.Parse(raw.(string))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid user ID", nil, nil)
		return
	}

	limit := 50
	if rawLimit := ctx.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	logs, err := c.repo.ListUserNotifications(ctx.Request.Context(), userID, limit)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list notifications", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Notifications retrieved", logs, nil)
}
