package http

import (
	"net/http"

	"github.com/laeyue/msu-iit-connect/internal/portal/service"
	"github.com/laeyue/msu-iit-connect/pkg/httpx"
	"github.com/laeyue/msu-iit-connect/pkg/portalsdk"
	"github.com/laeyue/msu-iit-connect/pkg/slogx"
)

// MeHandler echoes the identity behind the presented access token.
type MeHandler struct {
	AuthService *service.AuthService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		portalsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.AuthService.GetUserByID(ctx, userID)
	if err != nil {
		log.Warn("failed to load user", "user_id", userID, "err", err)
		portalsdk.ErrInvalidToken.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.IdentityResponse{
		UserID: user.ID,
		Email:  user.Email,
	})
}
