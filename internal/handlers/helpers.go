package handlers

import (
	"encoding/json"
	"net/http"

	"content-publisher/internal/locales"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/hlog"
)

// getLocalizer picks the response language from Accept-Language, falling
// back to the configured default.
func getLocalizer(r *http.Request) *i18n.Localizer {
	return locales.NewLocalizer(r.Header.Get("Accept-Language"), locales.GetDefaultLanguageTag().String())
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("failed to write response")
	}
}

// writeError sends a localized error body. The underlying error, if any, is
// included as text.
func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string, err error) {
	body := errorResponse{
		Success: false,
		Message: locales.GetMessage(getLocalizer(r), msgID, nil, nil),
	}
	if err != nil {
		body.Error = err.Error()
	}
	writeJSON(w, r, status, body)
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	hlog.FromRequest(r).Warn().Str("remote", r.RemoteAddr).Msg("rejected trigger request without valid secret")
	writeError(w, r, http.StatusUnauthorized, locales.MsgUnauthorized, nil)
}
