package locales

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInit(t *testing.T) {
	require.NoError(t, Init("en"))
	assert.Equal(t, language.English, GetDefaultLanguageTag())

	require.NoError(t, Init("not-a-language-!!"))
	assert.Equal(t, language.English, GetDefaultLanguageTag())
}

func TestGetMessage(t *testing.T) {
	require.NoError(t, Init("en"))

	en := NewLocalizer("en")
	assert.Equal(t, "No content scheduled for publishing at this time", GetMessage(en, MsgNoScheduledContent, nil, nil))
	assert.Equal(t, "Processed 1 scheduled content item", Count(en, MsgProcessedContent, 1))
	assert.Equal(t, "Processed 3 scheduled content items", Count(en, MsgProcessedContent, 3))

	ru := NewLocalizer("ru-RU,ru;q=0.9")
	assert.Equal(t, "Обработано 5 запланированных материалов", Count(ru, MsgProcessedContent, 5))
	assert.Equal(t, "Обработано 2 запланированных материала", Count(ru, MsgProcessedContent, 2))

	// Unsupported languages fall back to the bundle default.
	de := NewLocalizer("de")
	assert.Equal(t, "Unauthorized", GetMessage(de, MsgUnauthorized, nil, nil))

	// Unknown IDs come back verbatim.
	assert.Equal(t, "MsgDoesNotExist", GetMessage(en, "MsgDoesNotExist", nil, nil))
}
