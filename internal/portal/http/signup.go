package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/service"
	"github.com/laeyue/msu-iit-connect/pkg/httpx"
	"github.com/laeyue/msu-iit-connect/pkg/portalsdk"
	"github.com/laeyue/msu-iit-connect/pkg/slogx"
)

// SignUpHandler registers a new account and mints its first access token.
// The profile row is written alongside the user row with verified=false; a
// student council officer verifies accounts out of band.
type SignUpHandler struct {
	AuthService *service.AuthService
}

func (h *SignUpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req portalsdk.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.AuthService.SignUp(ctx, service.SignUpParams{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Category:    domain.Category(req.UserType),
		College:     req.College,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			portalsdk.ErrEmailTaken.WriteError(w)
		case errors.Is(err, service.ErrInvalidCredentials),
			errors.Is(err, service.ErrInvalidProfile):
			portalsdk.ErrInvalidRequest.WriteError(w)
		default:
			log.Error("sign up failed", "err", err)
			portalsdk.ErrServerError.WriteError(w)
		}
		return
	}

	// Sign the fresh account in so the client does not need a second round
	// trip to the token endpoint.
	_, token, err := h.AuthService.SignIn(ctx, user.Email, req.Password)
	if err != nil {
		log.Error("post-signup sign in failed", "user_id", user.ID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, tokenResponse(user, token))
}
