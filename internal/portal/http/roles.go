package http

import (
	"errors"
	"net/http"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/service"
	"github.com/laeyue/msu-iit-connect/internal/portal/store"
	"github.com/laeyue/msu-iit-connect/pkg/httpx"
	"github.com/laeyue/msu-iit-connect/pkg/portalsdk"
	"github.com/laeyue/msu-iit-connect/pkg/slogx"
)

// RoleHandler serves administrator-role lookups and grants. The lookup is
// readable by any authenticated user: clients resolve their own capabilities
// from it after a sign-in.
type RoleHandler struct {
	RolesService *service.RolesService
}

func (h *RoleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.PathValue("id")
	isAdmin, err := h.RolesService.IsAdministrator(ctx, userID)
	if err != nil {
		log.Warn("role lookup failed", "user_id", userID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.RoleResponse{
		UserID:        userID,
		Administrator: isAdmin,
	})
}

func (h *RoleHandler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.PathValue("id")
	if err := h.RolesService.Grant(ctx, userID, domain.RoleAdministrator); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			portalsdk.ErrNotFound.WriteError(w)
			return
		}
		log.Error("role grant failed", "user_id", userID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RoleHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.PathValue("id")
	if err := h.RolesService.Revoke(ctx, userID, domain.RoleAdministrator); err != nil {
		log.Error("role revoke failed", "user_id", userID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireAdministrator rejects requests whose authenticated caller does not
// hold the administrator role. Must sit after AuthnMiddleware in the chain.
func requireAdministrator(roles *service.RolesService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		callerID := httpx.UserIDFromContext(ctx)
		if callerID == "" {
			portalsdk.ErrInvalidToken.WriteError(w)
			return
		}

		isAdmin, err := roles.IsAdministrator(ctx, callerID)
		if err != nil {
			slogx.FromContext(ctx).Warn("admin check failed", "user_id", callerID, "err", err)
			portalsdk.ErrServerError.WriteError(w)
			return
		}
		if !isAdmin {
			(&portalsdk.APIError{
				StatusCode:  http.StatusForbidden,
				Code:        "forbidden",
				Description: "administrator role required",
			}).WriteError(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
