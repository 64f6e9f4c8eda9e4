package commentary

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

const (
	SystemUsername = "System"
	MeUsername     = "Me"
	DefaultColor   = "#ffffff"

	ColorWelcome = "#8BE9FD"
	ColorHint    = "#BD93F9"
	ColorPaused  = "#FFB86C"
	ColorStarted = "#50FA7B"
	ColorError   = "#FF5555"
)

// MaxMessages bounds the visible chat list and the seen cache.
const MaxMessages = 100

var DefaultUsernames = []string{
	"PixelPirate", "CodeWizard", "DataDragon", "CyberSamurai", "LogicLlama",
	"SyntaxSorcerer", "GlitchGoblin", "StreamSage", "ByteBard", "KernelKnight",
}

var UserColors = []string{
	"#ff79c6", "#50fa7b", "#8be9fd", "#f1fa8c", "#ffb86c", "#ff5555",
	"#bd93f9", "#ff92d0", "#6272a4", "#44475a",
}

type ChatMessage struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Color      string `json:"color"`
	Text       string `json:"text"`
	Attachment string `json:"attachment,omitempty"`
}

// fakeUser picks a random viewer from pool, or from DefaultUsernames when pool is empty.
// The color is tied to the pick's index so a name keeps its color.
func fakeUser(pool []string) (string, string) {
	if len(pool) == 0 {
		pool = DefaultUsernames
	}
	i := rand.IntN(len(pool))
	return pool[i], UserColors[i%len(UserColors)]
}

func NewChatMessage(text, username, color string, pool []string, attachment string) ChatMessage {
	if username == "" {
		username, color = fakeUser(pool)
	} else if color == "" {
		color = DefaultColor
	}
	return ChatMessage{
		ID:         uuid.NewString(),
		Username:   username,
		Color:      color,
		Text:       text,
		Attachment: attachment,
	}
}

func appendCapped(list []ChatMessage, msgs ...ChatMessage) []ChatMessage {
	list = append(list, msgs...)
	if len(list) > MaxMessages {
		list = append([]ChatMessage(nil), list[len(list)-MaxMessages:]...)
	}
	return list
}

// mergeByID replaces messages whose id reappears in incoming and appends the
// batch at the end, keeping at most MaxMessages.
func mergeByID(list, incoming []ChatMessage) []ChatMessage {
	ids := make(map[string]struct{}, len(incoming))
	for _, m := range incoming {
		ids[m.ID] = struct{}{}
	}

	kept := make([]ChatMessage, 0, len(list))
	for _, m := range list {
		if _, dup := ids[m.ID]; !dup {
			kept = append(kept, m)
		}
	}
	return appendCapped(kept, incoming...)
}
