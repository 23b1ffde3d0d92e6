package handlers

import (
	"errors"
	"net/http"

	cw "controlling_window"
	"controlling_window/internal/repository"
	"controlling_window/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidCredentials = "invalid credentials"
	errUserExists         = "username already taken"
	errAuthDisabled       = "sign-in is disabled: no signing key configured"
)

// bindCredentials binds the request body and writes a 400 JSON on failure.
// Returns false if the request was already handled.
func (h *Handler) bindCredentials(c *gin.Context, dst *cw.Credentials) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("auth_bad_request_body", "err", err)
		}
		c.JSON(http.StatusBadRequest, cw.ErrorResponse{Error: errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// @Summary      Register an operator
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      controlling_window.Credentials  true  "username and password"
// @Success      200   {object}  controlling_window.SignUpResponse
// @Failure      400   {object}  controlling_window.ErrorResponse
// @Failure      409   {object}  controlling_window.ErrorResponse
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var input cw.Credentials
	if !h.bindCredentials(c, &input) {
		return
	}

	id, err := h.services.SignUp(input.Username, input.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, cw.SignUpResponse{ID: id})
	case errors.Is(err, repository.ErrUserExists):
		c.JSON(http.StatusConflict, cw.ErrorResponse{Error: errUserExists})
	default:
		if h.log != nil {
			h.log.Infow("auth_sign_up_failed", "username", input.Username, "err", err)
		}
		c.JSON(http.StatusBadRequest, cw.ErrorResponse{Error: err.Error()})
	}
}

// @Summary      Obtain a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      controlling_window.Credentials  true  "username and password"
// @Success      200   {object}  controlling_window.TokenResponse
// @Failure      401   {object}  controlling_window.ErrorResponse
// @Failure      503   {object}  controlling_window.ErrorResponse
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input cw.Credentials
	if !h.bindCredentials(c, &input) {
		return
	}

	token, err := h.services.GenerateToken(input.Username, input.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, cw.TokenResponse{Token: token})
	case errors.Is(err, service.ErrNoSigningKey):
		h.logAndJSONError(c, http.StatusServiceUnavailable, errAuthDisabled, "auth_sign_in_disabled", err)
	default:
		if h.log != nil {
			h.log.Infow("auth_sign_in_failed", "username", input.Username, "err", err)
		}
		c.JSON(http.StatusUnauthorized, cw.ErrorResponse{Error: errInvalidCredentials})
	}
}
