package content

import (
	"strings"
)

// Normalize prepares stored post text for rendering. It strips a leading metadata
// header, then skips blank lines and import/export declarations until the first
// line of real content. Everything from that line on is returned untouched.
func Normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	if strings.HasPrefix(text, "---") {
		if end := strings.Index(text[3:], "\n---\n"); end != -1 {
			text = text[3+end+len("\n---\n"):]
		}
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isModuleDeclaration(trimmed) {
			continue
		}
		return strings.Join(lines[i:], "\n")
	}

	return ""
}

func isModuleDeclaration(line string) bool {
	return strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "export ")
}
