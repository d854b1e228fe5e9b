package questionnaire

import "strings"

// Render writes entries back out as questionnaire markdown. The result is
// semantically equivalent to the source document: sections in first-seen
// order, one bold prompt and one arrow line per entry, multi-line answers
// kept as continuation lines. Empty answers render as a bare arrow.
func Render(entries []Entry) string {
	var sb strings.Builder
	var section string

	for _, e := range entries {
		if e.Section != section {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("## ")
			sb.WriteString(e.Section)
			sb.WriteString("\n\n")
			section = e.Section
		}
		sb.WriteString("**")
		sb.WriteString(e.Question)
		sb.WriteString(":**\n")
		lines := strings.Split(e.Answer, "\n")
		sb.WriteString("→ ")
		sb.WriteString(strings.TrimRight(lines[0], " "))
		sb.WriteString("\n")
		for _, l := range lines[1:] {
			sb.WriteString(l)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
