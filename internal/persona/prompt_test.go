package persona

import (
	"strings"
	"testing"

	"github.com/rsharda/personad/internal/profile"
	"github.com/rsharda/personad/internal/questionnaire"
)

func TestBuildSystemPrompt(t *testing.T) {
	entries := []questionnaire.Entry{
		{Section: "Background", Question: "Full name", Answer: "Asha Verma"},
		{Section: "Style", Question: "Greeting style", Answer: ""},
	}
	got := buildSystemPrompt("=== CORE IDENTITY ===\nEngineer.", entries, "", nil, "Ravi", 4000)

	for _, want := range []string{
		"ROLE-PLAY INSTRUCTIONS",
		"=== CORE IDENTITY ===",
		"Full name: Asha Verma",
		"Greeting style: (unspecified)",
		"You are speaking with: Ravi",
		"STRICT JSON",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildSystemPrompt_FallbackRaw(t *testing.T) {
	got := buildSystemPrompt("summary", nil, "Standard Professional Persona", nil, "Guest", 4000)
	if !strings.Contains(got, "Standard Professional Persona") {
		t.Error("expected raw text when no entries are available")
	}
}

func TestBuildSystemPrompt_AttachmentBudget(t *testing.T) {
	entries := []questionnaire.Entry{
		{Section: "S", Question: "Q", Answer: "A"},
	}
	small := profile.Attachment{Name: "bio.txt", Text: "Short bio."}
	huge := profile.Attachment{Name: "book.txt", Text: strings.Repeat("word ", 20000)}

	got := buildSystemPrompt("sum", entries, "", []profile.Attachment{huge, small}, "Guest", 500)

	if strings.Contains(got, "book.txt") {
		t.Error("oversized attachment should be skipped")
	}
	if !strings.Contains(got, "bio.txt") || !strings.Contains(got, "Short bio.") {
		t.Error("small attachment should fit within budget")
	}
}

func TestBuildSystemPrompt_NoBudgetNoAttachments(t *testing.T) {
	att := []profile.Attachment{{Name: "bio.txt", Text: "text"}}
	got := buildSystemPrompt("sum", nil, "raw", att, "Guest", 0)
	if strings.Contains(got, "ADDITIONAL BACKGROUND") {
		t.Error("zero budget should exclude attachments")
	}
}

func TestSummaryPrompt(t *testing.T) {
	got := summaryPrompt("## Background\n**Q:**\n→ a\n")
	if !strings.Contains(got, "=== CORE IDENTITY ===") {
		t.Error("summary prompt missing output format")
	}
	if !strings.Contains(got, "RAW TEXT:") || !strings.Contains(got, "## Background") {
		t.Error("summary prompt missing raw questionnaire")
	}
}

func TestProfileText_MultilineAnswerFlattened(t *testing.T) {
	entries := []questionnaire.Entry{
		{Section: "S", Question: "Role", Answer: "Engineer.\nPayments."},
	}
	got := profileText(entries, "")
	if !strings.Contains(got, "Role: Engineer. Payments.") {
		t.Errorf("unexpected profile text: %q", got)
	}
}
