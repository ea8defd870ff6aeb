// Package docparse holds the placeholder pipeline: scanning {{key}} tokens out
// of a Google Docs body, classifying keys into petition categories and
// building the dynamic form schema rendered to end users.
package docparse

import (
	"strings"

	"google.golang.org/api/docs/v1"
)

// ExtractFromDocument returns the unique placeholder keys found in the
// document body, in first-seen order. Keys come back as plain strings with
// braces stripped. A nil document yields an empty list.
func ExtractFromDocument(doc *docs.Document) []string {
	if doc == nil || doc.Body == nil {
		return nil
	}
	// Placeholders are frequently split across adjacent text runs by Docs
	// revision history, so the scan runs over the concatenated body text
	// rather than per run.
	return ExtractTokens(collectText(doc.Body.Content))
}

// ExtractTokens scans text for {{token}} occurrences and returns the unique
// normalized tokens in first-seen order. Unbalanced braces are skipped.
func ExtractTokens(text string) []string {
	var tokens []string
	seen := make(map[string]bool)

	pos := 0
	for {
		start := strings.Index(text[pos:], "{{")
		if start == -1 {
			break
		}
		start += pos

		end := strings.Index(text[start+2:], "}}")
		if end == -1 {
			break
		}
		end += start + 2

		raw := text[start+2 : end]

		key, ok := NormalizeKey(raw)
		if !ok {
			// An unbalanced opener like "{{a {{b}}" rejects as a whole span;
			// resume just past the opener so the inner "{{b}}" still scans.
			pos = start + 2
			continue
		}
		pos = end + 2
		if !seen[key] {
			tokens = append(tokens, key)
			seen[key] = true
		}
	}

	return tokens
}

// NormalizeKey coerces a raw token to a plain comparable string. All
// deduplication and set operations happen after this point, never before.
// Returns false for tokens that are empty or still contain brace characters
// (a symptom of unbalanced markers like "{{a {{b}}").
func NormalizeKey(raw string) (string, bool) {
	key := strings.TrimSpace(raw)
	// Inner brace on a triple-brace form: "{{{chave}}}" scans as "{chave".
	key = strings.Trim(key, "{}")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	if strings.ContainsAny(key, "{}\n") {
		return "", false
	}
	return key, true
}

// collectText flattens the structural elements into one linear string. Tabs,
// tables and table-of-contents sections all nest further structural elements.
func collectText(content []*docs.StructuralElement) string {
	var sb strings.Builder
	appendStructural(&sb, content)
	return sb.String()
}

func appendStructural(sb *strings.Builder, content []*docs.StructuralElement) {
	for _, el := range content {
		if el == nil {
			continue
		}
		if el.Paragraph != nil {
			for _, pe := range el.Paragraph.Elements {
				if pe != nil && pe.TextRun != nil {
					sb.WriteString(pe.TextRun.Content)
				}
			}
		}
		if el.Table != nil {
			for _, row := range el.Table.TableRows {
				if row == nil {
					continue
				}
				for _, cell := range row.TableCells {
					if cell != nil {
						appendStructural(sb, cell.Content)
					}
				}
			}
		}
		if el.TableOfContents != nil {
			appendStructural(sb, el.TableOfContents.Content)
		}
	}
}
