package vision

import (
	"log/slog"
	"time"

	"github.com/eleven-am/live-commentary/internal/settings"
)

const (
	DefaultModel   = "gpt-4o"
	MaxTokens      = 256
	HistoryWindow  = 8
	DefaultTimeout = 60 * time.Second
)

type Config struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// Prompts are the three templates a widget can override. Chat may contain the
// {{userPrompt}} placeholder.
type Prompts struct {
	System   string `json:"system,omitempty"`
	Interval string `json:"interval,omitempty"`
	Chat     string `json:"chat,omitempty"`
}

const systemInstruction = `You are a participant in a Twitch-style chat.
Your task is to analyze the provided screenshot and generate 1 or 2 short, funny, or insightful comments.

Guidelines:
- Be funny, sarcastic, or supportive (hype).
- Use internet slang if appropriate.
- Do NOT describe the image technically (e.g., "I see a web page"). Instead, react to its contents.
- Do NOT repeat the user's prompt.
- Be concise (under 15 words).
- If provided, use the Chat History for context.

Format: Enclose every distinct comment in <comment>tags</comment>. Example: <comment>LMAO what is that??</comment>
If you cannot follow the tag format, just output the plain text comments, one per line.
`

func DefaultPrompts() Prompts {
	return Prompts{
		System:   systemInstruction,
		Interval: "Look at the screen content. React to it as a viewer.",
		Chat:     "The streamer said: \"{{userPrompt}}\".\nReply to them or comment on the screen. Be witty and concise.",
	}
}

// WithDefaults fills blank templates from DefaultPrompts.
func (p Prompts) WithDefaults() Prompts {
	d := DefaultPrompts()
	if p.System == "" {
		p.System = d.System
	}
	if p.Interval == "" {
		p.Interval = d.Interval
	}
	if p.Chat == "" {
		p.Chat = d.Chat
	}
	return p
}

type ChatLine struct {
	Username string
	Text     string
}

// Progress reports long-running provider initialization. Status is one of
// idle, loading, ready or error.
type Progress struct {
	Status   string
	Message  string
	Progress float64
}

type Request struct {
	Image      string
	Settings   settings.Settings
	History    []ChatLine
	UserPrompt string
	Prompts    Prompts
	Context    map[string]any
	OnProgress func(Progress)
}
