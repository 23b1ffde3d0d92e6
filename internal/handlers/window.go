package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	cw "controlling_window"
	"controlling_window/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusOpening = "opening"
	statusClosing = "closing"

	errOpenWindow      = "failed to open window"
	errCloseWindow     = "failed to close window"
	errGetState        = "failed to load state"
	errShutdown        = "window controller is shutting down"
	errInvalidBodyPref = "invalid body: "
)

// ErrInvalidMinutes is returned for missing, negative or out-of-range durations.
var ErrInvalidMinutes = errors.New("minutes must be a non-negative integer within range")

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, cw.ErrorResponse{Error: userMsg})
}

// Respond with a status and include current state if available (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string) {
	resp := cw.StatusResponse{Status: status}
	if st, err := h.services.Monitoring.GetState(c.Request.Context()); err == nil {
		resp.State = st
	}
	c.JSON(http.StatusOK, resp)
}

// windowCommandError maps core errors to HTTP codes.
func (h *Handler) windowCommandError(c *gin.Context, userMsg, logKey string, err error) {
	if errors.Is(err, service.ErrShutdown) {
		c.JSON(http.StatusConflict, cw.ErrorResponse{Error: errShutdown})
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err)
}

// maxMinutes is the largest request that still fits a time.Duration.
const maxMinutes = int64(math.MaxInt64 / int64(time.Minute))

// minutesToDuration validates a request duration. Negative durations mean
// "indefinite" to the window service, so anything that would wrap is rejected here.
func minutesToDuration(m *int) (time.Duration, error) {
	if m == nil || *m < 0 || int64(*m) > maxMinutes {
		return 0, ErrInvalidMinutes
	}
	return time.Duration(*m) * time.Minute, nil
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Open window
// @Description  Opens the window now and closes it again after the given minutes. Replaces every pending command.
// @Tags         window
// @Accept       json
// @Produce      json
// @Param        body  body      controlling_window.OpenRequest  true  "Open payload"
// @Success      200   {object}  controlling_window.StatusResponse
// @Failure      400   {object}  controlling_window.ErrorResponse
// @Failure      401   {object}  controlling_window.ErrorResponse
// @Failure      409   {object}  controlling_window.ErrorResponse
// @Failure      500   {object}  controlling_window.ErrorResponse
// @Router       /api/v1/window/open [post]
// @Security     BearerAuth
func (h *Handler) openWindow(c *gin.Context) {
	var req cw.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, cw.ErrorResponse{Error: errInvalidBodyPref + err.Error()})
		return
	}
	d, err := minutesToDuration(req.Minutes)
	if err != nil {
		c.JSON(http.StatusBadRequest, cw.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.services.Window.RequestOpen(c.Request.Context(), d); err != nil {
		h.windowCommandError(c, errOpenWindow, "window_open_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusOpening)
}

// @Summary      Close window
// @Description  Closes the window now. "minutes" suppresses auto-open for that long; "manual" suppresses it until the next command.
// @Tags         window
// @Accept       json
// @Produce      json
// @Param        body  body      controlling_window.CloseRequest  true  "Close payload"
// @Success      200   {object}  controlling_window.StatusResponse
// @Failure      400   {object}  controlling_window.ErrorResponse
// @Failure      401   {object}  controlling_window.ErrorResponse
// @Failure      409   {object}  controlling_window.ErrorResponse
// @Failure      500   {object}  controlling_window.ErrorResponse
// @Router       /api/v1/window/close [post]
// @Security     BearerAuth
func (h *Handler) closeWindow(c *gin.Context) {
	var req cw.CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, cw.ErrorResponse{Error: errInvalidBodyPref + err.Error()})
		return
	}
	rest := service.HoldIndefinitely
	if !req.Manual {
		d, err := minutesToDuration(req.Minutes)
		if err != nil {
			c.JSON(http.StatusBadRequest, cw.ErrorResponse{Error: err.Error()})
			return
		}
		rest = d
	}
	if err := h.services.Window.RequestClose(c.Request.Context(), rest); err != nil {
		h.windowCommandError(c, errCloseWindow, "window_close_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusClosing)
}

// @Summary      Get window state
// @Tags         window
// @Produce      json
// @Success      200  {object}  models.WindowState
// @Failure      401  {object}  controlling_window.ErrorResponse
// @Failure      500  {object}  controlling_window.ErrorResponse
// @Router       /api/v1/window/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "window_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}
