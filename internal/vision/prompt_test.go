package vision

import (
	"strings"
	"testing"
)

func TestBuildSystemInstruction_Interval(t *testing.T) {
	req := Request{
		History: []ChatLine{{Username: "PixelPirate", Text: "hello"}},
	}
	got := buildSystemInstruction(req, DefaultPrompts())

	if !strings.Contains(got, "Chat History:\nPixelPirate: hello") {
		t.Errorf("history missing from instruction:\n%s", got)
	}
	if !strings.HasSuffix(got, "Task: Analyze the attached image. Generate new comments.\n") {
		t.Errorf("unexpected task directive:\n%s", got)
	}
	if strings.Contains(got, "Current Application State") {
		t.Error("context block should be omitted without context data")
	}
}

func TestBuildSystemInstruction_UserPrompt(t *testing.T) {
	got := buildSystemInstruction(Request{UserPrompt: "hey"}, DefaultPrompts())
	if !strings.Contains(got, "Respond to the user input.") {
		t.Errorf("expected user directive:\n%s", got)
	}
}

func TestBuildSystemInstruction_Context(t *testing.T) {
	req := Request{Context: map[string]any{"score": 3, "level": "<boss>"}}
	got := buildSystemInstruction(req, DefaultPrompts())

	want := "\nCurrent Application State/Stats:\n{\n  \"level\": \"<boss>\",\n  \"score\": 3\n}\nUse this data to inform your commentary."
	if !strings.Contains(got, want) {
		t.Errorf("context block not found:\n%s", got)
	}
}

func TestRenderHistory_LastEight(t *testing.T) {
	var history []ChatLine
	for i := 0; i < 12; i++ {
		history = append(history, ChatLine{Username: "u", Text: string(rune('a' + i))})
	}
	lines := strings.Split(renderHistory(history), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d", len(lines))
	}
	if lines[0] != "u: e" || lines[7] != "u: l" {
		t.Errorf("unexpected window %v", lines)
	}
}

func TestBuildUserText(t *testing.T) {
	p := DefaultPrompts()
	if got := buildUserText(Request{}, p); got != p.Interval {
		t.Errorf("expected interval prompt, got %q", got)
	}

	got := buildUserText(Request{UserPrompt: "look at this"}, p)
	if !strings.HasPrefix(got, `The streamer said: "look at this".`) {
		t.Errorf("placeholder not substituted: %q", got)
	}
}

func TestPrompts_WithDefaults(t *testing.T) {
	p := Prompts{Interval: "custom"}.WithDefaults()
	if p.Interval != "custom" {
		t.Errorf("custom interval overwritten: %q", p.Interval)
	}
	if p.System == "" || p.Chat == "" {
		t.Error("blank templates should be filled")
	}
}
