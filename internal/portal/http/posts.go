package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
	"github.com/laeyue/msu-iit-connect/internal/portal/service"
	"github.com/laeyue/msu-iit-connect/pkg/httpx"
	"github.com/laeyue/msu-iit-connect/pkg/portalsdk"
	"github.com/laeyue/msu-iit-connect/pkg/slogx"
)

// PostsHandler serves the announcement feed. Reads are public; publishing
// requires the administrator role.
type PostsHandler struct {
	FeedService  *service.FeedService
	RolesService *service.RolesService
}

func (h *PostsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	posts, err := h.FeedService.ListPosts(ctx)
	if err != nil {
		log.Error("list posts failed", "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	resp := portalsdk.PostListResponse{Posts: make([]portalsdk.PostResponse, 0, len(posts))}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, postResponse(p))
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *PostsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	postID := r.PathValue("id")
	post, err := h.FeedService.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			portalsdk.ErrNotFound.WriteError(w)
			return
		}
		log.Error("get post failed", "post_id", postID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, postResponse(post))
}

func (h *PostsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	callerID := httpx.UserIDFromContext(ctx)
	isAdmin, err := h.RolesService.IsAdministrator(ctx, callerID)
	if err != nil {
		log.Warn("admin check failed", "user_id", callerID, "err", err)
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

	var req portalsdk.PostCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	post, err := h.FeedService.CreatePost(ctx, domain.Post{
		Publication: req.Publication,
		Title:       req.Title,
		Content:     req.Content,
		Author:      req.Author,
	})
	if err != nil {
		log.Error("create post failed", "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, postResponse(post))
}

func postResponse(p domain.Post) portalsdk.PostResponse {
	return portalsdk.PostResponse{
		ID:          p.ID,
		Publication: p.Publication,
		Title:       p.Title,
		Content:     p.Content,
		Author:      p.Author,
		CreatedAt:   p.CreatedAt,
	}
}
