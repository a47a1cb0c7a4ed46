package api

import (
	"net/http"

	resdto "todo-notifier/internal/handler/dto/response"
	"todo-notifier/internal/handler/httperr"
	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	cmds commands.NotificationCommands
}

func NewNotificationHandler(cmds commands.NotificationCommands) *NotificationHandler {
	return &NotificationHandler{cmds: cmds}
}

// @Summary Run notification sweep
// @Description Evaluate every active todo now, outside the regular schedule
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.SweepReportResponse
// @Failure 401 {object} map[string]string
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/notifications/sweep [post]
func (h *NotificationHandler) RunSweep(c *gin.Context) {
	report, err := h.cmds.RunSweep(c.Request.Context())
	if err != nil {
		var detail any
		if report != nil {
			detail = resdto.FromSweepReport(report)
		}
		switch {
		case errs.Is(err, commands.ErrSweepInProgress):
			httperr.AbortWithError(c, http.StatusConflict, err, "Sweep already in progress", nil)
		case errs.Is(err, errs.ErrStoreUnavailable):
			httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Task store unavailable", detail)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Sweep failed", detail)
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromSweepReport(report))
}

// @Summary Task changed
// @Description Evaluate a single todo after it was created or updated. Safe to redeliver.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} resdto.SendOutcomeResponse
// @Failure 400 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/tasks/{id}/changed [post]
func (h *NotificationHandler) TaskChanged(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}

	outcome, err := h.cmds.HandleTaskChanged(c.Request.Context(), id)
	if err != nil {
		var detail any
		if outcome != nil {
			detail = resdto.FromSendOutcome(outcome)
		}
		// non-2xx makes the trigger source redeliver, which is the retry
		switch {
		case errs.Is(err, errs.ErrInvalidTaskData):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Task data is invalid", detail)
		case errs.Is(err, errs.ErrDispatch):
			httperr.AbortWithError(c, http.StatusBadGateway, err, "Email could not be sent", detail)
		case errs.Is(err, errs.ErrStoreUnavailable):
			httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Store unavailable", detail)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to handle task change", detail)
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromSendOutcome(outcome))
}
