package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"content-publisher/internal/database/models"
	"content-publisher/internal/locales"
	"content-publisher/internal/timeutil"

	"github.com/rs/zerolog/hlog"
)

const healthTimeout = 5 * time.Second

var errUnknownStatusFilter = errors.New("unknown status filter")

// ListScheduled lists unpublished items, or published ones with
// ?status=published, with times rendered at the local offset.
func (h *Handler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	published, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, locales.MsgInvalidStatusFilter, err)
		return
	}

	items, err := h.store.ListByPublication(r.Context(), published, defaultListLimit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Bool("published", published).Msg("failed to list scheduled content")
		writeError(w, r, http.StatusInternalServerError, locales.MsgListFailed, err)
		return
	}

	views := make([]scheduledView, 0, len(items))
	for _, item := range items {
		views = append(views, toView(item))
	}
	writeJSON(w, r, http.StatusOK, listResponse{Success: true, Count: len(views), Items: views})
}

// Health pings the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("health check failed")
		writeError(w, r, http.StatusServiceUnavailable, locales.MsgStoreUnavailable, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func parseStatusFilter(v string) (bool, error) {
	switch v {
	case "", "pending":
		return false, nil
	case "published":
		return true, nil
	default:
		return false, errUnknownStatusFilter
	}
}

func toView(item models.ScheduledContent) scheduledView {
	status := item.Status
	if status == "" {
		status = models.StatusDraft
	}
	return scheduledView{
		ID:               item.ID.Hex(),
		Platform:         item.Platform,
		Title:            item.Title,
		Status:           status,
		Owner:            item.Owner,
		ScheduledAt:      item.ScheduledAt,
		ScheduledAtLocal: timeutil.DisplayLocal(item.ScheduledAt),
		PublishedAt:      item.PublishedAt,
		PublishedAtLocal: timeutil.DisplayLocal(item.PublishedAt),
	}
}
