package docs

import (
	"sort"
	"strings"

	docs "google.golang.org/api/docs/v1"
)

// PlainText extracts the text of every part of a document where a template
// token could appear: the body, headers, footers and footnotes of legacy
// documents and of every tab (including nested child tabs).
func PlainText(doc *docs.Document) string {
	if doc == nil {
		return ""
	}

	var text strings.Builder
	if len(doc.Tabs) > 0 {
		for _, tab := range doc.Tabs {
			extractTabText(&text, tab)
		}
	} else {
		extractSegments(&text, doc.Body, doc.Headers, doc.Footers, doc.Footnotes)
	}
	return text.String()
}

func extractTabText(text *strings.Builder, tab *docs.Tab) {
	if tab == nil {
		return
	}
	if dt := tab.DocumentTab; dt != nil {
		extractSegments(text, dt.Body, dt.Headers, dt.Footers, dt.Footnotes)
	}
	for _, child := range tab.ChildTabs {
		extractTabText(text, child)
	}
}

func extractSegments(text *strings.Builder, body *docs.Body, headers map[string]docs.Header, footers map[string]docs.Footer, footnotes map[string]docs.Footnote) {
	if body != nil {
		extractContent(text, body.Content)
	}
	// Map iteration order is random; sort ids so the output is stable.
	for _, id := range sortedKeys(headers) {
		extractContent(text, headers[id].Content)
	}
	for _, id := range sortedKeys(footers) {
		extractContent(text, footers[id].Content)
	}
	for _, id := range sortedKeys(footnotes) {
		extractContent(text, footnotes[id].Content)
	}
}

func extractContent(text *strings.Builder, content []*docs.StructuralElement) {
	for _, element := range content {
		if element == nil {
			continue
		}
		if element.Paragraph != nil {
			extractParagraphText(text, element.Paragraph)
		} else if element.Table != nil {
			extractTableText(text, element.Table)
		}
	}
}

// extractParagraphText extracts plain text from a paragraph
func extractParagraphText(text *strings.Builder, para *docs.Paragraph) {
	for _, elem := range para.Elements {
		if elem.TextRun != nil {
			text.WriteString(elem.TextRun.Content)
		}
	}
}

// extractTableText extracts plain text from a table, one row per line
func extractTableText(text *strings.Builder, table *docs.Table) {
	for _, row := range table.TableRows {
		for _, cell := range row.TableCells {
			extractContent(text, cell.Content)
			text.WriteString("\t")
		}
		text.WriteString("\n")
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FindTokens returns the tokens that occur in text, in the order given.
// Matching is case-sensitive, like the replacement itself.
func FindTokens(text string, tokens []string) []string {
	var found []string
	for _, tok := range tokens {
		if tok != "" && strings.Contains(text, tok) {
			found = append(found, tok)
		}
	}
	return found
}
