package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/realtime"
	"github.com/laeyue/msu-iit-connect/internal/portal/service"
	"github.com/laeyue/msu-iit-connect/pkg/portalsdk"
	"github.com/laeyue/msu-iit-connect/pkg/slogx"
)

// streamHeartbeat keeps idle SSE connections alive through proxies.
const streamHeartbeat = 25 * time.Second

// StreamHandler serves the per-post change stream over Server-Sent Events.
// Each connected client holds exactly one broker subscription, released when
// the client disconnects. Events carry no row data; clients re-fetch.
type StreamHandler struct {
	Broker      realtime.Broker
	FeedService *service.FeedService
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	postID := r.PathValue("id")
	if _, err := h.FeedService.GetPost(ctx, postID); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			portalsdk.ErrNotFound.WriteError(w)
			return
		}
		log.Error("stream post lookup failed", "post_id", postID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	tables := parseTables(r.URL.Query().Get("tables"))
	sub, err := h.Broker.Subscribe(ctx, postID, tables...)
	if err != nil {
		log.Error("broker subscribe failed", "post_id", postID, "err", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial comment so clients know the stream is established.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()

		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Error("marshal change event failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func parseTables(raw string) []string {
	if raw == "" {
		return []string{realtime.TableLikes, realtime.TableComments}
	}

	var tables []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == realtime.TableLikes || t == realtime.TableComments {
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		tables = []string{realtime.TableLikes, realtime.TableComments}
	}
	return tables
}
