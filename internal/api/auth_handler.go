package api

import (
	"errors"
	"net/http"

	"github.com/Minpi-0/Health-Tracker/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the identity provider dependency.
type AuthHandler struct {
	authService auth.Service
	// bootstrapToken is a deployment-supplied custom token. Sign-in
	// requests without a token of their own use it; when it is empty too,
	// sign-in falls back to a fresh anonymous identity.
	bootstrapToken string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService auth.Service, bootstrapToken string) *AuthHandler {
	return &AuthHandler{authService: authService, bootstrapToken: bootstrapToken}
}

// --- Request/Response Structs ---

type TokenSignInRequest struct {
	Token string `json:"token"`
}

type SignInResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	Anonymous bool   `json:"anonymous"`
}

// --- Handler Methods ---

// SignInAnonymous mints a fresh anonymous identity and session token.
func (h *AuthHandler) SignInAnonymous(c *gin.Context) {
	user, token, err := h.authService.SignInAnonymous(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Could not establish a session")
		return
	}
	c.JSON(http.StatusOK, SignInResponse{Token: token, UserID: user.ID, Anonymous: user.Anonymous})
}

// SignInWithToken exchanges a custom token for a session. A missing token
// falls back to the configured bootstrap token, then to anonymous sign-in.
func (h *AuthHandler) SignInWithToken(c *gin.Context) {
	// The body is optional: no token at all is a legitimate request.
	var req TokenSignInRequest
	_ = c.ShouldBindJSON(&req)
	customToken := req.Token
	if customToken == "" {
		customToken = h.bootstrapToken
	}
	if customToken == "" {
		h.SignInAnonymous(c)
		return
	}

	user, token, err := h.authService.SignInWithToken(c.Request.Context(), customToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Could not establish a session")
		return
	}
	c.JSON(http.StatusOK, SignInResponse{Token: token, UserID: user.ID, Anonymous: user.Anonymous})
}

// SignOut ends the caller's identity session; listeners release its
// store subscriptions.
func (h *AuthHandler) SignOut(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	h.authService.SignOut(c.Request.Context(), userID)
	c.Status(http.StatusNoContent)
}
