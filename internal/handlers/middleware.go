package handlers

import (
	"net/http"
	"strings"

	cw "controlling_window"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	// accessTokenParam carries the token for clients that cannot set headers
	// on a WebSocket upgrade. The header wins when both are present.
	accessTokenParam    = "access_token"
	userCtx             = "userId"

	errMissingAuth   = "missing Authorization header"
	errBadAuthFormat = "invalid Authorization header format"
	errTokenRejected = "invalid or expired token"
)

// bearerToken extracts the token from the Authorization header or the
// access_token query parameter. On failure it returns the client message.
func bearerToken(c *gin.Context) (string, string) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		if tok := strings.TrimSpace(c.Query(accessTokenParam)); tok != "" {
			return tok, ""
		}
		return "", errMissingAuth
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errBadAuthFormat
	}
	return strings.TrimSpace(parts[1]), ""
}

func (h *Handler) userIdMiddleware(c *gin.Context) {
	token, msg := bearerToken(c)
	if msg != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, cw.ErrorResponse{Error: msg})
		return
	}

	userId, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_token_rejected", "err", err, "path", c.FullPath())
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, cw.ErrorResponse{Error: errTokenRejected})
		return
	}

	c.Set(userCtx, userId)
	c.Next()
}
