package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/service"
	"github.com/laeyue/msu-iit-connect/internal/portal/store"
	"github.com/laeyue/msu-iit-connect/pkg/httpx"
	"github.com/laeyue/msu-iit-connect/pkg/portalsdk"
	"github.com/laeyue/msu-iit-connect/pkg/slogx"
)

// maxLookupIDs caps the batch size of a profile lookup request.
const maxLookupIDs = 200

// ProfileHandler serves profile reads and owner updates.
type ProfileHandler struct {
	ProfileService *service.ProfileService
}

func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.PathValue("id")
	profile, err := h.ProfileService.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			portalsdk.ErrNotFound.WriteError(w)
			return
		}
		log.Warn("profile lookup failed", "user_id", userID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req portalsdk.ProfileLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if len(req.UserIDs) > maxLookupIDs {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	profiles, err := h.ProfileService.GetByUserIDs(ctx, req.UserIDs)
	if err != nil {
		log.Warn("profile batch lookup failed", "count", len(req.UserIDs), "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	resp := portalsdk.ProfileLookupResponse{
		Profiles: make(map[string]portalsdk.ProfileResponse, len(profiles)),
	}
	for id, p := range profiles {
		resp.Profiles[id] = profileResponse(p)
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ProfileHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		portalsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req portalsdk.ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.ProfileService.UpdateDisplayName(ctx, userID, req.DisplayName); err != nil {
		if errors.Is(err, service.ErrInvalidProfile) {
			portalsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		log.Error("profile update failed", "user_id", userID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) HandleSetVerified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.PathValue("id")

	var req portalsdk.VerifiedUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.ProfileService.SetVerified(ctx, userID, req.Verified); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			portalsdk.ErrNotFound.WriteError(w)
			return
		}
		log.Error("verified update failed", "user_id", userID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func profileResponse(p domain.Profile) portalsdk.ProfileResponse {
	return portalsdk.ProfileResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		UserType:    string(p.Category),
		College:     p.College,
		Verified:    p.Verified,
	}
}
