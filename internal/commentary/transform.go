package commentary

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// TransformJSONMessages expects the model to answer with a JSON array of chat messages.
const TransformJSONMessages = "json-messages"

var ErrUnknownTransform = errors.New("unknown response transform")

// ResponseTransform takes over from the built-in parser: it turns the raw
// completion into chat messages that are merged straight into the list.
type ResponseTransform func(raw string) ([]ChatMessage, error)

// LookupTransform resolves a transform by name. An empty name means none.
func LookupTransform(name string) (ResponseTransform, error) {
	switch name {
	case "":
		return nil, nil
	case TransformJSONMessages:
		return JSONMessages, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransform, name)
	}
}

var jsonFence = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func JSONMessages(raw string) ([]ChatMessage, error) {
	raw = strings.TrimSpace(raw)
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	if raw == "" {
		return nil, nil
	}

	var msgs []ChatMessage
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, fmt.Errorf("decode transformed messages: %w", err)
	}

	out := msgs[:0]
	for _, m := range msgs {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Username == "" {
			m.Username, m.Color = fakeUser(nil)
		}
		if m.Color == "" {
			m.Color = DefaultColor
		}
		out = append(out, m)
	}
	return out, nil
}
