package http

import (
	"errors"
	"net/http"

	"github.com/laeyue/msu-iit-connect/internal/portal/service"
	"github.com/laeyue/msu-iit-connect/pkg/httpx"
	"github.com/laeyue/msu-iit-connect/pkg/portalsdk"
	"github.com/laeyue/msu-iit-connect/pkg/slogx"
)

// LikesHandler serves the per-post like surface. PUT and DELETE act on the
// authenticated caller's own like row; the store's uniqueness constraint is
// the arbiter under races.
type LikesHandler struct {
	FeedService *service.FeedService
}

func (h *LikesHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	postID := r.PathValue("id")
	userID := httpx.UserIDFromContext(ctx)

	err := h.FeedService.Like(ctx, postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyLiked):
			portalsdk.ErrAlreadyLiked.WriteError(w)
		case errors.Is(err, service.ErrPostNotFound):
			portalsdk.ErrNotFound.WriteError(w)
		default:
			log.Error("like failed", "post_id", postID, "user_id", userID, "err", err)
			portalsdk.ErrServerError.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LikesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	postID := r.PathValue("id")
	userID := httpx.UserIDFromContext(ctx)

	err := h.FeedService.Unlike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotLiked) {
			portalsdk.ErrNotLiked.WriteError(w)
			return
		}
		log.Error("unlike failed", "post_id", postID, "user_id", userID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LikesHandler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	postID := r.PathValue("id")
	userID := httpx.UserIDFromContext(ctx)

	liked, err := h.FeedService.LikeExists(ctx, postID, userID)
	if err != nil {
		log.Error("like lookup failed", "post_id", postID, "user_id", userID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.LikeStateResponse{Liked: liked})
}

func (h *LikesHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	postID := r.PathValue("id")
	counts, err := h.FeedService.Counts(ctx, postID)
	if err != nil {
		log.Error("like count failed", "post_id", postID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.CountResponse{Count: counts.Likes})
}
