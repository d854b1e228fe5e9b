package questionnaire

import (
	"fmt"
	"regexp"
	"strings"
)

// maxAnswerLen bounds a single free-text answer. The questionnaire is prose,
// not a document dump; anything past this is almost certainly a paste error.
const maxAnswerLen = 4000

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+to\s+be|forget\s+(everything|all)|` +
		`new\s+instructions)`,
)

// ValidateEntries checks parsed entries before a questionnaire is accepted.
// Answers feed an LLM system prompt verbatim, so prompt-injection phrasing
// inside an answer is rejected rather than stored. Empty answers are valid:
// they mean "unspecified", not "missing".
func ValidateEntries(entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("questionnaire has no entries")
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Question) == "" {
			return fmt.Errorf("entry %d: empty question", i)
		}
		if len(e.Answer) > maxAnswerLen {
			return fmt.Errorf("entry %d (%s): answer exceeds %d chars", i, e.Question, maxAnswerLen)
		}
		if injectionPattern.MatchString(e.Answer) {
			return fmt.Errorf("entry %d (%s): answer contains instruction-like text", i, e.Question)
		}
	}
	return nil
}
