// Package ingest fetches remote vocabulary/grammar/reading content,
// normalizes it into models.Item, deduplicates against the store, and
// inserts in batches (spec §4.4). Grounded on the rate-limit/retry/UA
// rotation contract in original_source/bilingual_tutor/content/crawler_utils.py
// and the teacher's internal/excel seed-file importer.
package ingest

import (
	"time"

	"github.com/example/bilingualtutor/internal/models"
)

// Format is the raw payload shape a Source serves.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Source describes one remote content source (spec §4.4).
type Source struct {
	Name           string            `json:"name"`
	BaseURL        string            `json:"base_url"`
	Language       models.Language   `json:"language"`
	Levels         []models.Level    `json:"levels"`
	Kind           models.Kind       `json:"kind"`
	Format         Format            `json:"format"`
	FieldAliases   map[string]string `json:"field_aliases"`
	MinDelay       time.Duration     `json:"min_delay"`
	MaxDelay       time.Duration     `json:"max_delay"`
	Headers        map[string]string `json:"headers"`
	Enabled        bool              `json:"enabled"`
	BackupBuiltin  bool              `json:"backup_builtin"`
	MaxAttempts    int               `json:"max_attempts"`
	BackoffFactor  float64           `json:"backoff_factor"`
	InitialDelay   time.Duration     `json:"initial_delay"`
	RequestTimeout time.Duration     `json:"request_timeout"`
}

// SourceFile is the on-disk descriptor document (spec §6): two
// top-level keys mapping level tag to Source, plus shared defaults.
type SourceFile struct {
	EnglishSources  map[string]Source `json:"english_sources"`
	JapaneseSources map[string]Source `json:"japanese_sources"`
	CrawlerSettings CrawlerSettings   `json:"crawler_settings"`
}

// CrawlerSettings carries defaults applied to any Source missing its
// own value.
type CrawlerSettings struct {
	Timeout       time.Duration `json:"timeout"`
	MaxAttempts   int           `json:"max_attempts"`
	MinDelay      time.Duration `json:"min_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
}

// ApplyDefaults fills zero-valued Source fields from settings.
func (c CrawlerSettings) ApplyDefaults(s Source) Source {
	if s.RequestTimeout == 0 {
		s.RequestTimeout = c.Timeout
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = c.MaxAttempts
	}
	if s.MinDelay == 0 {
		s.MinDelay = c.MinDelay
	}
	if s.MaxDelay == 0 {
		s.MaxDelay = c.MaxDelay
	}
	if s.BackoffFactor == 0 {
		s.BackoffFactor = c.BackoffFactor
	}
	return s
}

// Sources flattens a SourceFile into a single slice with defaults
// applied, skipping disabled sources. English sources come before
// Japanese ones; the order within each language is not defined.
func (f SourceFile) Sources() []Source {
	var out []Source
	for _, s := range f.EnglishSources {
		s.Language = models.LanguageEnglish
		if s.Enabled {
			out = append(out, f.CrawlerSettings.ApplyDefaults(s))
		}
	}
	for _, s := range f.JapaneseSources {
		s.Language = models.LanguageJapanese
		if s.Enabled {
			out = append(out, f.CrawlerSettings.ApplyDefaults(s))
		}
	}
	return out
}
