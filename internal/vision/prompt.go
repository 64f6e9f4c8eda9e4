package vision

import (
	"bytes"
	"encoding/json"
	"strings"
)

const userPromptPlaceholder = "{{userPrompt}}"

func buildSystemInstruction(req Request, prompts Prompts) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(prompts.System)
	b.WriteString("\n\n")
	b.WriteString(contextBlock(req.Context))
	b.WriteString("\n\nChat History:\n")
	b.WriteString(renderHistory(req.History))
	b.WriteString("\n\nTask: Analyze the attached image. ")
	if req.UserPrompt != "" {
		b.WriteString("Respond to the user input.")
	} else {
		b.WriteString("Generate new comments.")
	}
	b.WriteString("\n")
	return b.String()
}

func buildUserText(req Request, prompts Prompts) string {
	if req.UserPrompt == "" {
		return prompts.Interval
	}
	return strings.Replace(prompts.Chat, userPromptPlaceholder, req.UserPrompt, 1)
}

func renderHistory(history []ChatLine) string {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, h.Username+": "+h.Text)
	}
	return strings.Join(lines, "\n")
}

func contextBlock(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return ""
	}
	return "\nCurrent Application State/Stats:\n" + strings.TrimRight(buf.String(), "\n") + "\nUse this data to inform your commentary."
}
