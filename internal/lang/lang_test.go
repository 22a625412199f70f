package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetKnownKey(t *testing.T) {
	assert.Equal(t, "Track", Get("en", "track"))
	assert.Equal(t, "Трек", Get("ru", "track"))
	assert.Equal(t, "Трек", Get("ua", "track"))
}

func TestGetFallsBackToDefaultLanguage(t *testing.T) {
	// "de" is not a supported language.
	assert.Equal(t, Get(DefaultLanguage, "track"), Get("de", "track"))
}

func TestGetUnknownKeyReturnsKey(t *testing.T) {
	assert.Equal(t, "no_such_key", Get("en", "no_such_key"))
}

func TestAllLanguagesShareTheSameKeySet(t *testing.T) {
	base := tables[DefaultLanguage]
	for code, table := range tables {
		assert.Len(t, table, len(base), "language %s has a different key count", code)
		for key := range base {
			_, ok := table[key]
			assert.True(t, ok, "language %s is missing key %s", code, key)
		}
	}
}

func TestIsSupported(t *testing.T) {
	for _, code := range Supported {
		assert.True(t, IsSupported(code))
	}
	assert.False(t, IsSupported("de"))
}
