package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/bilingualtutor/internal/models"
)

// SeedFileConfig configures an operator-supplied seed file import,
// adapted from the teacher's internal/excel.ImportConfig: the teacher's
// word-only fixed columns become an alias-probed header row so a
// seed file can carry vocabulary, grammar, or reading rows uniformly.
type SeedFileConfig struct {
	FilePath string
	Language models.Language
	Level    models.Level
	Kind     models.Kind
	Sheet    string // Excel sheet name; ignored for CSV
}

// ImportSeedFile reads an operator-supplied .xlsx or .csv file and
// returns the normalized items it describes, running through the same
// alias-probing path as remote ingest (normalizer.buildItems).
func ImportSeedFile(cfg SeedFileConfig) ([]models.Item, int, error) {
	ext := strings.ToLower(filepath.Ext(cfg.FilePath))
	var raws []map[string]string
	var err error

	if ext == ".csv" {
		raws, err = readSeedCSV(cfg.FilePath)
	} else {
		raws, err = readSeedExcel(cfg.FilePath, cfg.Sheet)
	}
	if err != nil {
		return nil, 0, err
	}

	src := Source{Language: cfg.Language, Levels: []models.Level{cfg.Level}, Kind: cfg.Kind}
	return buildItems(src, raws)
}

func readSeedCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read seed csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var raws []map[string]string
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		row := make(map[string]string, len(header))
		for i, v := range record {
			if i < len(header) {
				row[header[i]] = v
			}
		}
		raws = append(raws, row)
	}
	return raws, nil
}

func readSeedExcel(path, sheet string) ([]map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open seed workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read seed sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	raws := make([]map[string]string, 0, len(rows)-1)
	for _, record := range rows[1:] {
		row := make(map[string]string, len(header))
		for i, v := range record {
			if i < len(header) {
				row[header[i]] = v
			}
		}
		raws = append(raws, row)
	}
	return raws, nil
}
