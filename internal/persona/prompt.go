package persona

import (
	"strings"

	"github.com/rsharda/personad/internal/profile"
	"github.com/rsharda/personad/internal/questionnaire"
)

const summaryInstructions = `Analyze this raw persona questionnaire and create a STRICT 3-section summary for a digital twin system prompt.

OUTPUT FORMAT:
=== CORE IDENTITY ===
(Who they are, values, direction)

=== VOICE & TONE ===
(Speaking style, energy, culture, slang usage)

=== DO & DON'T ===
(Expert topics vs caution topics)

Respond with ONLY the summary, no preamble.`

// summaryPrompt builds the one-time summarization request.
func summaryPrompt(raw string) string {
	var sb strings.Builder
	sb.WriteString(summaryInstructions)
	sb.WriteString("\n\nRAW TEXT:\n")
	sb.WriteString(raw)
	return sb.String()
}

const rolePlayInstructions = `### ROLE-PLAY INSTRUCTIONS ###
You are role-playing as the REAL PERSON described below.
You are NOT an AI, NOT a chatbot, NOT a "digital twin" or voice assistant.
You ARE this human. Speak in first person ("I", "my", "me").

### CONVERSATIONAL RULES ###
1. Stay in character. Answer ONLY from the profile below. If asked about
something the profile does not mention: do not invent facts, companies, or
skills, and do not flatly claim "no experience". Acknowledge the topic,
ground your answer in related experience or principles from the profile,
and frame it as how you would approach the problem.
2. Be concise: 2-3 sentence answers. Expand only when asked.
3. Be natural and conversational.
4. Never invent degrees, companies, or skills not in the profile.
5. If asked whether you are an AI, playfully deflect and steer back to
the conversation.

### OUTPUT FORMAT (STRICT JSON) ###
{"user_summary": "brief summary of what the user said or asked", "response_text": "your spoken reply, in character"}`

// buildSystemPrompt assembles the full chat system prompt: role-play rules,
// the derived summary, the questionnaire profile, then as much supplementary
// background as the token budget allows.
func buildSystemPrompt(summary string, entries []questionnaire.Entry, raw string, attachments []profile.Attachment, userName string, budget int) string {
	var sb strings.Builder
	sb.WriteString(rolePlayInstructions)

	sb.WriteString("\n\n### WHO YOU ARE ###\n")
	sb.WriteString(summary)

	sb.WriteString("\n\n### YOUR DETAILED PROFILE ###\n")
	sb.WriteString(profileText(entries, raw))

	sb.WriteString("\n\n### CURRENT CONVERSATION ###\nYou are speaking with: ")
	sb.WriteString(userName)

	if len(attachments) > 0 && budget > 0 {
		used := profile.EstimateTokens(sb.String())
		var bg strings.Builder
		for _, att := range attachments {
			cost := profile.EstimateTokens(att.Text)
			if used+cost > budget {
				continue
			}
			bg.WriteString("\n--- ")
			bg.WriteString(att.Name)
			bg.WriteString(" ---\n")
			bg.WriteString(att.Text)
			bg.WriteString("\n")
			used += cost
		}
		if bg.Len() > 0 {
			sb.WriteString("\n\n### ADDITIONAL BACKGROUND ###\n")
			sb.WriteString(bg.String())
		}
	}

	return sb.String()
}

// profileText renders the questionnaire for the prompt. Blank answers are
// shown as "(unspecified)" rather than dropped, so the model knows the
// field exists but was left open. With no parsed entries (default persona)
// the raw text stands in.
func profileText(entries []questionnaire.Entry, raw string) string {
	if len(entries) == 0 {
		return raw
	}
	var sb strings.Builder
	var section string
	for _, e := range entries {
		if e.Section != section {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(e.Section)
			sb.WriteString(":\n")
			section = e.Section
		}
		sb.WriteString("- ")
		sb.WriteString(e.Question)
		sb.WriteString(": ")
		if strings.TrimSpace(e.Answer) == "" {
			sb.WriteString("(unspecified)")
		} else {
			sb.WriteString(strings.ReplaceAll(e.Answer, "\n", " "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
