package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bilingualtutor/internal/models"
)

func TestCrawlerSettings_ApplyDefaults(t *testing.T) {
	settings := CrawlerSettings{Timeout: 5 * time.Second, MaxAttempts: 3, MinDelay: time.Second, MaxDelay: 2 * time.Second, BackoffFactor: 1.5}

	s := settings.ApplyDefaults(Source{})
	assert.Equal(t, 5*time.Second, s.RequestTimeout)
	assert.Equal(t, 3, s.MaxAttempts)

	override := settings.ApplyDefaults(Source{MaxAttempts: 7})
	assert.Equal(t, 7, override.MaxAttempts)
}

func TestSourceFile_Sources_SkipsDisabledAndTagsLanguage(t *testing.T) {
	sf := SourceFile{
		EnglishSources: map[string]Source{
			"cet4": {Name: "cet4", Enabled: true},
			"cet6": {Name: "cet6", Enabled: false},
		},
		JapaneseSources: map[string]Source{
			"n5": {Name: "n5", Enabled: true},
		},
	}

	sources := sf.Sources()
	require.Len(t, sources, 2)

	names := map[string]models.Language{}
	for _, s := range sources {
		names[s.Name] = s.Language
	}
	assert.Equal(t, models.LanguageEnglish, names["cet4"])
	assert.Equal(t, models.LanguageJapanese, names["n5"])
	_, disabled := names["cet6"]
	assert.False(t, disabled)
}
