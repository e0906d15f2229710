package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/service"
	"github.com/laeyue/msu-iit-connect/pkg/httpx"
	"github.com/laeyue/msu-iit-connect/pkg/portalsdk"
	"github.com/laeyue/msu-iit-connect/pkg/slogx"
)

// TokenHandler exchanges email+password for an access token.
type TokenHandler struct {
	AuthService *service.AuthService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req portalsdk.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, token, err := h.AuthService.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			portalsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Error("sign in failed", "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(user, token))
}

func tokenResponse(user domain.User, token service.Token) portalsdk.TokenResponse {
	return portalsdk.TokenResponse{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(token.ExpiresAt).Seconds()),
	}
}
