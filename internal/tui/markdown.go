package tui

import "strings"

// formatMarkdown renders the small markdown subset models usually answer with:
// headers, bullet points and **bold** spans.
func formatMarkdown(text string, bold, header func(...string) string) string {
	lines := strings.Split(text, "\n")
	formatted := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "### "):
			formatted = append(formatted, header(strings.TrimPrefix(trimmed, "### ")))
		case strings.HasPrefix(trimmed, "## "):
			formatted = append(formatted, header(strings.TrimPrefix(trimmed, "## ")))
		case strings.HasPrefix(trimmed, "# "):
			formatted = append(formatted, header(strings.TrimPrefix(trimmed, "# ")))
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			item := strings.TrimPrefix(strings.TrimPrefix(trimmed, "- "), "* ")
			formatted = append(formatted, "  • "+processBold(item, bold))
		default:
			formatted = append(formatted, processBold(line, bold))
		}
	}
	return strings.Join(formatted, "\n")
}

// processBold renders **bold** spans; an unterminated span runs to the end of the line
func processBold(text string, bold func(...string) string) string {
	var result, span strings.Builder
	open := false

	for i := 0; i < len(text); {
		if i < len(text)-1 && text[i] == '*' && text[i+1] == '*' {
			if open {
				result.WriteString(bold(span.String()))
				span.Reset()
			}
			open = !open
			i += 2
			continue
		}
		if open {
			span.WriteByte(text[i])
		} else {
			result.WriteByte(text[i])
		}
		i++
	}
	if open {
		result.WriteString(bold(span.String()))
	}
	return result.String()
}
