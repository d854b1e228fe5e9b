package questionnaire

import (
	"bufio"
	"io"
	"strings"
)

// Parse scans a persona questionnaire document and returns its entries in
// document order. The format is line-oriented markdown: "##" headings open
// sections, bold "**...**" lines are question prompts (bare or as list
// items), and "→" lines carry the answer. Plain lines directly after an
// arrow line continue the answer; an arrow with no text is an explicitly
// empty answer.
//
// Missing markers are load failures, not silent truncation: a prompt with
// no arrow line before the next prompt or heading, an arrow with no
// preceding prompt, and a prompt before any section heading all return a
// *ParseError with the offending line number.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries []Entry
		section string

		pending     bool // prompt seen, no arrow yet
		pendingLine int
		question    string
		inAnswer    bool // arrow seen, collecting continuation
		answer      strings.Builder
		line        int
	)

	flush := func() {
		entries = append(entries, Entry{
			Section:  section,
			Question: question,
			Answer:   strings.TrimSpace(answer.String()),
		})
		question = ""
		answer.Reset()
		inAnswer = false
	}

	for scanner.Scan() {
		line++
		raw := scanner.Text()
		text := strings.TrimSpace(raw)

		switch {
		case text == "":
			// A blank line ends answer continuation, completing the entry.
			if inAnswer {
				flush()
			}

		case isHeading(text):
			level, title := splitHeading(text)
			if level == 1 {
				// Document title, not a section.
				continue
			}
			if pending {
				return nil, &ParseError{Line: pendingLine, Msg: "question " + quote(question) + " has no answer marker before next heading"}
			}
			if inAnswer {
				flush()
			}
			section = title

		case isPrompt(text):
			if pending {
				return nil, &ParseError{Line: pendingLine, Msg: "question " + quote(question) + " has no answer marker before next question"}
			}
			if inAnswer {
				flush()
			}
			if section == "" {
				return nil, &ParseError{Line: line, Msg: "question before any section heading"}
			}
			question = promptText(text)
			pending = true
			pendingLine = line

		case isArrow(text):
			if !pending && !inAnswer {
				return nil, &ParseError{Line: line, Msg: "answer with no preceding question"}
			}
			if inAnswer && answer.Len() > 0 {
				answer.WriteString("\n")
			}
			answer.WriteString(arrowText(text))
			pending = false
			inAnswer = true

		default:
			switch {
			case inAnswer:
				if answer.Len() > 0 {
					answer.WriteString("\n")
				}
				answer.WriteString(text)
			case pending:
				// Wrapped question prompt.
				question += " " + strings.TrimSuffix(text, ":")
			default:
				// Free prose outside any prompt (section intro, preamble)
				// is not part of an entry.
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if pending {
		return nil, &ParseError{Line: pendingLine, Msg: "question " + quote(question) + " has no answer marker before end of document"}
	}
	if inAnswer {
		flush()
	}

	return entries, nil
}

func isHeading(s string) bool {
	return strings.HasPrefix(s, "#")
}

// splitHeading returns the heading level and its trimmed title.
func splitHeading(s string) (int, string) {
	level := 0
	for level < len(s) && s[level] == '#' {
		level++
	}
	return level, strings.TrimSpace(s[level:])
}

// isPrompt reports whether a line is a bold question prompt, optionally in
// list-item form ("- **...**").
func isPrompt(s string) bool {
	s = stripBullet(s)
	if !strings.HasPrefix(s, "**") {
		return false
	}
	return strings.Contains(s[2:], "**")
}

// promptText extracts the question text from a prompt line: the bold span
// plus any trailing qualifier, e.g.
// "**Greeting style** (how you usually say hello):" keeps the parenthetical.
func promptText(s string) string {
	s = stripBullet(s)
	s = strings.TrimPrefix(s, "**")
	inner, rest, _ := strings.Cut(s, "**")
	q := strings.TrimSpace(inner)
	if rest = strings.TrimSpace(rest); rest != "" {
		q += " " + rest
	}
	return strings.TrimSuffix(q, ":")
}

func stripBullet(s string) string {
	if strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "* ") {
		return strings.TrimSpace(s[2:])
	}
	return s
}

func isArrow(s string) bool {
	return strings.HasPrefix(s, "→") || strings.HasPrefix(s, "->")
}

func arrowText(s string) string {
	s = strings.TrimPrefix(s, "→")
	s = strings.TrimPrefix(s, "->")
	return strings.TrimSpace(s)
}

func quote(s string) string {
	if len(s) > 60 {
		s = s[:60] + "..."
	}
	return `"` + s + `"`
}
