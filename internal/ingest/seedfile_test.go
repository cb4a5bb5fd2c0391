package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/bilingualtutor/internal/models"
)

func TestImportSeedFile_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.csv")
	require.NoError(t, os.WriteFile(path, []byte("word,meaning\napple,a fruit\nbanana,a yellow fruit\n"), 0o644))

	items, dropped, err := ImportSeedFile(SeedFileConfig{
		FilePath: path, Language: models.LanguageEnglish, Level: models.LevelCET4, Kind: models.KindVocabulary,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
	require.Len(t, items, 2)
	assert.Equal(t, "apple", items[0].Headword)
	assert.Equal(t, models.LevelCET4, items[0].Level)
}

func TestImportSeedFile_Excel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "word")
	f.SetCellValue(sheet, "B1", "meaning")
	f.SetCellValue(sheet, "A2", "食べる")
	f.SetCellValue(sheet, "B2", "to eat")
	require.NoError(t, f.SaveAs(path))

	items, _, err := ImportSeedFile(SeedFileConfig{
		FilePath: path, Language: models.LanguageJapanese, Level: models.LevelN5, Kind: models.KindVocabulary,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "食べる", items[0].Headword)
}

func TestBuiltinSeed_UnknownLevelReturnsNil(t *testing.T) {
	assert.Nil(t, BuiltinSeed(models.LanguageEnglish, models.LevelN5))
}

func TestBuiltinSeed_KnownLevel(t *testing.T) {
	items := BuiltinSeed(models.LanguageJapanese, models.LevelN5)
	assert.NotEmpty(t, items)
	for _, it := range items {
		assert.Equal(t, models.LanguageJapanese, it.Language)
		assert.Equal(t, models.LevelN5, it.Level)
	}
}
