package questionnaire

import "fmt"

// Entry is a single answered prompt from a persona questionnaire.
// Entries are produced in document order; each question belongs to
// exactly one section.
type Entry struct {
	Section  string `json:"section"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ParseError reports a malformed questionnaire at a specific line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("questionnaire: line %d: %s", e.Line, e.Msg)
}
