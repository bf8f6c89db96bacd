package handlers

import (
	"context"
	"net/http"

	"content-publisher/internal/locales"
	"content-publisher/internal/publishing"

	"github.com/rs/zerolog/hlog"
)

// PublishScheduled runs one publication pass and reports the summary.
// The run is detached from the request: a scheduler that drops the connection
// does not abort dispatches already in flight.
func (h *Handler) PublishScheduled(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.runTimeout)
	defer cancel()

	summary, err := h.runner.Run(ctx)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("publication run failed")
		writeError(w, r, http.StatusInternalServerError, locales.MsgProcessingFailed, err)
		return
	}

	localizer := getLocalizer(r)
	resp := publishResponse{Success: true}
	switch summary.Outcome {
	case publishing.RunSkipped:
		resp.Message = locales.GetMessage(localizer, locales.MsgRunInProgress, nil, nil)
	case publishing.RunIdle:
		resp.Message = locales.GetMessage(localizer, locales.MsgNoScheduledContent, nil, nil)
	default:
		resp.Message = locales.Count(localizer, locales.MsgProcessedContent, len(summary.Results))
		resp.Results = summary.Results
	}

	hlog.FromRequest(r).Info().
		Str("outcome", string(summary.Outcome)).
		Int("results", len(summary.Results)).
		Int("failed", len(summary.Failed())).
		Msg("publication run finished")
	writeJSON(w, r, http.StatusOK, resp)
}
