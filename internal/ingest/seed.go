package ingest

import "github.com/example/bilingualtutor/internal/models"

// builtinSeeds is the embedded fallback content used when a source has
// backup_builtin set and its remote fetch exhausts retries, the
// idiomatic replacement for the teacher's internal/excel bundled
// spreadsheet seeding. Small and intentionally incomplete: enough to
// keep a session plannable, not a content corpus.
var builtinSeeds = map[models.Language]map[models.Level][]models.Item{
	models.LanguageEnglish: {
		models.LevelCET4: {
			{Kind: models.KindVocabulary, Language: models.LanguageEnglish, Level: models.LevelCET4, Headword: "abandon", Meaning: "to give up completely", Example: "He abandoned the project."},
			{Kind: models.KindVocabulary, Language: models.LanguageEnglish, Level: models.LevelCET4, Headword: "benefit", Meaning: "an advantage gained", Example: "The new policy has many benefits."},
			{Kind: models.KindVocabulary, Language: models.LanguageEnglish, Level: models.LevelCET4, Headword: "consequence", Meaning: "a result of an action", Example: "Consider the consequences first."},
		},
		models.LevelCET6: {
			{Kind: models.KindVocabulary, Language: models.LanguageEnglish, Level: models.LevelCET6, Headword: "ambiguous", Meaning: "open to more than one interpretation", Example: "The instructions were ambiguous."},
			{Kind: models.KindVocabulary, Language: models.LanguageEnglish, Level: models.LevelCET6, Headword: "cognizant", Meaning: "having knowledge or awareness", Example: "She was cognizant of the risks."},
		},
	},
	models.LanguageJapanese: {
		models.LevelN5: {
			{Kind: models.KindVocabulary, Language: models.LanguageJapanese, Level: models.LevelN5, Headword: "食べる", Reading: "たべる", Meaning: "to eat", Example: "ご飯を食べる。"},
			{Kind: models.KindVocabulary, Language: models.LanguageJapanese, Level: models.LevelN5, Headword: "学校", Reading: "がっこう", Meaning: "school", Example: "学校へ行きます。"},
		},
		models.LevelN3: {
			{Kind: models.KindVocabulary, Language: models.LanguageJapanese, Level: models.LevelN3, Headword: "経験", Reading: "けいけん", Meaning: "experience", Example: "貴重な経験をした。"},
		},
	},
}

// BuiltinSeed returns the fallback items for a language/level, or nil
// if none are bundled for that combination.
func BuiltinSeed(language models.Language, level models.Level) []models.Item {
	byLevel, ok := builtinSeeds[language]
	if !ok {
		return nil
	}
	return byLevel[level]
}
