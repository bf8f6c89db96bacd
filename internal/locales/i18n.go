package locales

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

//go:embed *.json
var localeFS embed.FS

// Message IDs used in API responses.
const (
	MsgNoScheduledContent  = "MsgNoScheduledContent"
	MsgProcessedContent    = "MsgProcessedContent"
	MsgRunInProgress       = "MsgRunInProgress"
	MsgProcessingFailed    = "MsgProcessingFailed"
	MsgUnauthorized        = "MsgUnauthorized"
	MsgStoreUnavailable    = "MsgStoreUnavailable"
	MsgListFailed          = "MsgListFailed"
	MsgInvalidStatusFilter = "MsgInvalidStatusFilter"
	MsgPublicationFailures = "MsgPublicationFailures"
)

var (
	mu              sync.RWMutex
	bundle          *i18n.Bundle
	defaultLanguage language.Tag // Store the parsed default language tag
)

// Init initializes the i18n bundle by loading language files and setting the default language.
func Init(defaultLangCode string) error {
	defaultTag, err := language.Parse(defaultLangCode)
	if err != nil {
		log.Warn().Err(err).Str("code", defaultLangCode).Msg("Failed to parse default language code, falling back to English")
		defaultTag = language.English
	}

	b := i18n.NewBundle(defaultTag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	// Load translation files from the embedded filesystem
	entries, err := localeFS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("failed to read embedded locales directory: %w", err)
	}

	loadedFiles := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if _, err := b.LoadMessageFileFS(localeFS, entry.Name()); err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to load message file")
			continue
		}
		loadedFiles++
	}
	if loadedFiles == 0 {
		return fmt.Errorf("no message files loaded")
	}

	mu.Lock()
	bundle = b
	defaultLanguage = defaultTag
	mu.Unlock()

	log.Debug().Int("files", loadedFiles).Str("default", defaultTag.String()).Msg("i18n bundle initialized")
	return nil
}

// GetDefaultLanguageTag returns the configured default language tag.
func GetDefaultLanguageTag() language.Tag {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLanguage
}

// NewLocalizer creates a localizer for the given language preferences.
// It takes language tags (e.g., "en", "ru") or Accept-Language header string.
func NewLocalizer(langPrefs ...string) *i18n.Localizer {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b == nil {
		log.Panic().Msg("Attempted to create localizer before i18n bundle initialization")
	}
	return i18n.NewLocalizer(b, langPrefs...)
}

// GetMessage retrieves and formats a message by its ID using the provided localizer.
// templateData: optional template variables (e.g., map[string]interface{}{"Count": 3}).
// pluralCount: optional pointer to an int for pluralization rules.
func GetMessage(localizer *i18n.Localizer, msgID string, templateData map[string]interface{}, pluralCount *int) string {
	config := &i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: templateData,
	}
	if pluralCount != nil {
		config.PluralCount = *pluralCount
	}

	localizedMsg, err := localizer.Localize(config)
	if err == nil {
		return localizedMsg
	}
	log.Error().Err(err).Str("message_id", msgID).Msg("Failed to localize message, falling back to English")

	englishLocalizer := NewLocalizer(language.English.String())
	if fallbackMsg, fallbackErr := englishLocalizer.Localize(config); fallbackErr == nil {
		return fallbackMsg
	}
	return msgID // Return the ID as the ultimate fallback
}

// Count is a shortcut for messages pluralized on a single Count variable.
func Count(localizer *i18n.Localizer, msgID string, n int) string {
	return GetMessage(localizer, msgID, map[string]interface{}{"Count": n}, &n)
}
