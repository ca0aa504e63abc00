package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextGetFallbackChain(t *testing.T) {
	text := Text{"en": "Perfume", "ru": "Духи"}

	assert.Equal(t, "Perfume", text.Get("en", "ru"))
	assert.Equal(t, "Духи", text.Get("uz", "ru"))
	assert.Equal(t, "Perfume", Text{"en": "Perfume", "ru": ""}.Get("kk", "ru"))
	assert.Equal(t, "Hyang", Text{"zz": "", "xx": "Hyang"}.Get("ko", "ru"))
	assert.Equal(t, "", Text{}.Get("ru", "ru"))
}

func TestTextLookupMissIsNotAnError(t *testing.T) {
	_, ok := Text{"ru": "Духи"}.Lookup("ko")
	assert.False(t, ok)
}

func TestNormalizeAndResolve(t *testing.T) {
	assert.Equal(t, "en", Normalize("en-US"))
	assert.Equal(t, "uz", Normalize(" UZ "))
	assert.Equal(t, "", Normalize("de"))

	assert.Equal(t, "ko", Resolve("ru", "", "ko-KR"))
	assert.Equal(t, "ru", Resolve("ru", "de", "fr"))
	assert.Equal(t, DefaultLocale, Resolve("xx"))
}
