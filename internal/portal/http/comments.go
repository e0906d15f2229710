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

// CommentsHandler serves the per-post comment thread, oldest first.
type CommentsHandler struct {
	FeedService *service.FeedService
}

func (h *CommentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	postID := r.PathValue("id")
	comments, err := h.FeedService.ListComments(ctx, postID)
	if err != nil {
		log.Error("list comments failed", "post_id", postID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	resp := portalsdk.CommentListResponse{
		Comments: make([]portalsdk.CommentResponse, 0, len(comments)),
	}
	for _, c := range comments {
		resp.Comments = append(resp.Comments, commentResponse(c))
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *CommentsHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	postID := r.PathValue("id")
	counts, err := h.FeedService.Counts(ctx, postID)
	if err != nil {
		log.Error("comment count failed", "post_id", postID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.CountResponse{Count: counts.Comments})
}

func (h *CommentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	postID := r.PathValue("id")
	userID := httpx.UserIDFromContext(ctx)

	var req portalsdk.CommentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	comment, err := h.FeedService.AddComment(ctx, postID, userID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyComment):
			portalsdk.ErrCommentEmpty.WriteError(w)
		case errors.Is(err, service.ErrPostNotFound):
			portalsdk.ErrNotFound.WriteError(w)
		default:
			log.Error("add comment failed", "post_id", postID, "user_id", userID, "err", err)
			portalsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, commentResponse(comment))
}

func commentResponse(c domain.Comment) portalsdk.CommentResponse {
	return portalsdk.CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}
