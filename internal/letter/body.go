package letter

import "strings"

// NormalizeBody converts model output to the template's paragraph layout,
// where paragraphs are separated by exactly one "\n" and blank lines never
// appear. NormalizeBody(NormalizeBody(s)) == NormalizeBody(s).
func NormalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")

	lines := strings.Split(body, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		paragraphs = append(paragraphs, line)
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n"))
}
