package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/example/bilingualtutor/internal/models"
)

// englishAliases and japaneseAliases map the field-alias synonyms spec
// §4.4 names onto canonical Item fields. Japanese additionally probes
// kana/hiragana readings; English does not.
var englishAliases = map[string][]string{
	"headword": {"word", "text", "name", "headword"},
	"meaning":  {"meaning", "definition", "translation"},
	"example":  {"example", "sample", "usage"},
	"reading":  {"reading", "phonetic", "pronunciation"},
}

var japaneseAliases = map[string][]string{
	"headword": {"word", "text", "name", "headword"},
	"meaning":  {"meaning", "definition", "translation"},
	"example":  {"example", "sample", "usage"},
	"reading":  {"reading", "phonetic", "kana", "hiragana"},
}

func aliasesFor(lang models.Language) map[string][]string {
	if lang == models.LanguageJapanese {
		return japaneseAliases
	}
	return englishAliases
}

// probe looks up canonical into raw through the alias table, returning
// the first non-empty match.
func probe(raw map[string]string, aliases map[string][]string, canonical string) string {
	for _, key := range aliases[canonical] {
		if v, ok := raw[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Normalizer turns a raw fetched payload into canonical models.Item
// values, dropping any record with no resolvable headword.
type Normalizer struct{}

// Normalize dispatches on src.Format.
func (n Normalizer) Normalize(src Source, body []byte) ([]models.Item, int, error) {
	switch src.Format {
	case FormatJSON:
		return n.normalizeJSON(src, body)
	case FormatCSV:
		return n.normalizeCSV(src, body)
	case FormatHTML:
		return n.normalizeHTML(src, body)
	default:
		return nil, 0, fmt.Errorf("unsupported ingest format %q", src.Format)
	}
}

func (n Normalizer) normalizeJSON(src Source, body []byte) ([]models.Item, int, error) {
	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, 0, fmt.Errorf("parse json payload: %w", err)
	}

	raws := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		flat := make(map[string]string, len(row))
		for k, v := range row {
			flat[strings.ToLower(k)] = fmt.Sprintf("%v", v)
		}
		raws = append(raws, flat)
	}
	return buildItems(src, raws)
}

func (n Normalizer) normalizeCSV(src Source, body []byte) ([]models.Item, int, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var raws []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, v := range record {
			if i < len(header) {
				row[header[i]] = v
			}
		}
		raws = append(raws, row)
	}
	return buildItems(src, raws)
}

// normalizeHTML walks the document with golang.org/x/net/html, treating
// each element carrying a data-field attribute as one column of a
// virtual row keyed by its data-row attribute.
func (n Normalizer) normalizeHTML(src Source, body []byte) ([]models.Item, int, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse html: %w", err)
	}

	rows := map[string]map[string]string{}
	var order []string

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			var rowID, field string
			for _, attr := range node.Attr {
				switch attr.Key {
				case "data-row":
					rowID = attr.Val
				case "data-field":
					field = attr.Val
				}
			}
			if rowID != "" && field != "" {
				if _, ok := rows[rowID]; !ok {
					rows[rowID] = map[string]string{}
					order = append(order, rowID)
				}
				rows[rowID][strings.ToLower(field)] = textContent(node)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	raws := make([]map[string]string, 0, len(order))
	for _, id := range order {
		raws = append(raws, rows[id])
	}
	return buildItems(src, raws)
}

func textContent(node *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return strings.TrimSpace(b.String())
}

func buildItems(src Source, raws []map[string]string) ([]models.Item, int, error) {
	aliases := aliasesFor(src.Language)
	if src.FieldAliases != nil {
		aliases = mergeAliases(aliases, src.FieldAliases)
	}

	level := models.Level("")
	if len(src.Levels) > 0 {
		level = src.Levels[0]
	}

	var items []models.Item
	dropped := 0
	for _, raw := range raws {
		headword := probe(raw, aliases, "headword")
		if headword == "" {
			dropped++
			continue
		}

		item := models.Item{
			Kind:     src.Kind,
			Language: src.Language,
			Level:    level,
			Headword: headword,
			Reading:  probe(raw, aliases, "reading"),
			Meaning:  probe(raw, aliases, "meaning"),
			Example:  probe(raw, aliases, "example"),
		}
		if src.Kind == models.KindGrammar {
			item.Pattern = headword
			item.Explanation = item.Meaning
			if item.Example != "" {
				item.ExampleList = []string{item.Example}
			}
		}
		if src.Kind == models.KindReading {
			item.Title = headword
			item.Body = item.Meaning
		}
		items = append(items, item)
	}
	return items, dropped, nil
}

func mergeAliases(base map[string][]string, extra map[string]string) map[string][]string {
	merged := make(map[string][]string, len(base))
	for k, v := range base {
		merged[k] = append([]string{}, v...)
	}
	for canonical, alias := range extra {
		merged[canonical] = append(merged[canonical], alias)
	}
	return merged
}
