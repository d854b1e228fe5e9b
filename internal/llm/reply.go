package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ChatReply is the strict-JSON contract the chat prompt asks the model for.
type ChatReply struct {
	UserSummary  string `json:"user_summary"`
	ResponseText string `json:"response_text"`
}

// ParseChatReply decodes a model reply. Models occasionally ignore the JSON
// contract, so non-JSON text falls back to being the response itself rather
// than failing the turn.
func ParseChatReply(raw, userText string) ChatReply {
	text := StripCodeBlock(raw)

	var reply ChatReply
	if err := json.Unmarshal([]byte(text), &reply); err == nil && reply.ResponseText != "" {
		if reply.UserSummary == "" {
			reply.UserSummary = userText
		}
		return reply
	}

	return ChatReply{
		UserSummary:  userText,
		ResponseText: text,
	}
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripCodeBlock removes a surrounding markdown code fence, if any.
func StripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
