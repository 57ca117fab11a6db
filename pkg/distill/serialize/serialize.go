// Package serialize renders extracted document content into the final text
// or markdown payload written by the orchestrator.
package serialize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes extracted text: line endings become LF, trailing
// whitespace is stripped per line (indentation is preserved), the result is
// Unicode NFC, and non-empty output ends with a single newline.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = norm.NFC.String(strings.Join(lines, "\n"))

	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}
	return text + "\n"
}

// RenderText produces the .txt payload: markdown pipe tables are flattened
// to delimiter-joined rows, then the whole content is normalized.
func RenderText(content, delimiter string) string {
	if delimiter == "" {
		delimiter = "\t"
	}
	return Normalize(TablesToDelimited(content, delimiter))
}

// TablesToDelimited rewrites markdown pipe tables as plain delimited rows.
// Alignment separator rows are dropped.
func TablesToDelimited(content, delimiter string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	inTable := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") && len(trimmed) > 1:
			cells := splitRow(trimmed)
			if isSeparatorRow(cells) {
				inTable = true
				continue
			}
			inTable = true
			out = append(out, strings.Join(cells, delimiter))
		case inTable && strings.HasPrefix(trimmed, "|") && strings.Contains(trimmed, "-"):
			// Unterminated separator row inside a table.
			continue
		default:
			inTable = false
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func splitRow(row string) []string {
	inner := strings.TrimSuffix(strings.TrimPrefix(row, "|"), "|")
	parts := strings.Split(inner, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// isSeparatorRow reports whether every cell is an alignment marker such as
// "---", ":--", or "--:".
func isSeparatorRow(cells []string) bool {
	sawDash := false
	for _, c := range cells {
		if c == "" {
			continue
		}
		if strings.Trim(c, ":-") != "" {
			return false
		}
		if strings.Contains(c, "-") {
			sawDash = true
		}
	}
	return sawDash
}
