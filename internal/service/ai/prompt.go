package ai

import (
	"strings"

	"github.com/zhouzirui/dialogue-sim/backend/internal/model/chat"
)

const (
	historyHeader  = "--- CONVERSATION HISTORY ---"
	questionHeader = "--- CURRENT QUESTION ---"

	// FormattingInstruction asks the model for Markdown-structured answers.
	FormattingInstruction = "IMPORTANT INSTRUCTION: Structure your response using Markdown. " +
		"Use bolding for emphasis, italics for thoughts or quoted text, and bullet points for lists where appropriate."
)

// BuildPrompt assembles the full text sent to the generation backend:
// profile, replayed history, formatting instruction, then the new question.
// The backend keeps no memory between calls, so everything it should know
// about the conversation has to be in here.
func BuildPrompt(characterName, profile string, history []chat.Turn, question string) string {
	var b strings.Builder
	b.Grow(len(profile) + len(question) + len(FormattingInstruction) + 128)

	b.WriteString(profile)
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString(historyHeader)
		b.WriteString("\n")
		b.WriteString(FormatHistory(characterName, history))
		b.WriteString("\n\n")
	}

	b.WriteString(FormattingInstruction)
	b.WriteString("\n\n")

	b.WriteString(questionHeader)
	b.WriteString("\nUser asks: ")
	b.WriteString(question)
	return b.String()
}

// FormatHistory renders turns oldest first as "User: q" / "<name>: a" lines.
func FormatHistory(characterName string, history []chat.Turn) string {
	var b strings.Builder
	for i, turn := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("User: ")
		b.WriteString(turn.Question)
		b.WriteString("\n")
		b.WriteString(characterName)
		b.WriteString(": ")
		b.WriteString(turn.Answer)
	}
	return b.String()
}

// TruncateHistory keeps the most recent limit turns. limit <= 0 keeps everything.
func TruncateHistory(history []chat.Turn, limit int) []chat.Turn {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
