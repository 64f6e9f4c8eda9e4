package settings

import (
	"errors"
	"fmt"
)

// StorageKey prefixes every persisted settings record. Records are keyed per origin.
const StorageKey = "live-commentary-settings"

var ErrInvalidSettings = errors.New("invalid settings")

type Settings struct {
	CaptureInterval float64 `json:"captureInterval"`
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	Model           string  `json:"model"`
	RemoteURL       string  `json:"remoteUrl"`
	APIKey          string  `json:"apiKey"`
}

// Patch is a partial Settings. Nil fields leave the underlying value untouched,
// so a persisted record written by an older build only overrides what it carries.
type Patch struct {
	CaptureInterval *float64 `json:"captureInterval,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	Model           *string  `json:"model,omitempty"`
	RemoteURL       *string  `json:"remoteUrl,omitempty"`
	APIKey          *string  `json:"apiKey,omitempty"`
}

func Defaults() Settings {
	return Settings{
		CaptureInterval: 10,
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		Model:           "gpt-4o",
		RemoteURL:       "http://localhost:8080/v1/chat/completions",
		APIKey:          "",
	}
}

// Merge applies layers over base in order; later layers win field by field.
func Merge(base Settings, layers ...*Patch) Settings {
	out := base
	for _, p := range layers {
		if p == nil {
			continue
		}
		if p.CaptureInterval != nil {
			out.CaptureInterval = *p.CaptureInterval
		}
		if p.Temperature != nil {
			out.Temperature = *p.Temperature
		}
		if p.TopK != nil {
			out.TopK = *p.TopK
		}
		if p.TopP != nil {
			out.TopP = *p.TopP
		}
		if p.Model != nil {
			out.Model = *p.Model
		}
		if p.RemoteURL != nil {
			out.RemoteURL = *p.RemoteURL
		}
		if p.APIKey != nil {
			out.APIKey = *p.APIKey
		}
	}
	return out
}

// Resolve builds the effective settings: defaults, then caller overrides,
// then whatever the user previously persisted.
func Resolve(overrides, persisted *Patch) Settings {
	return Merge(Defaults(), overrides, persisted)
}

func (s Settings) Validate() error {
	switch {
	case s.CaptureInterval < 1:
		return fmt.Errorf("%w: captureInterval must be at least 1 second", ErrInvalidSettings)
	case s.Temperature < 0 || s.Temperature > 1.5:
		return fmt.Errorf("%w: temperature must be between 0 and 1.5", ErrInvalidSettings)
	case s.TopK < 1:
		return fmt.Errorf("%w: topK must be at least 1", ErrInvalidSettings)
	case s.TopP < 0 || s.TopP > 1:
		return fmt.Errorf("%w: topP must be between 0 and 1", ErrInvalidSettings)
	}
	return nil
}

// ToPatch returns a patch that sets every field of s.
func (s Settings) ToPatch() *Patch {
	return &Patch{
		CaptureInterval: &s.CaptureInterval,
		Temperature:     &s.Temperature,
		TopK:            &s.TopK,
		TopP:            &s.TopP,
		Model:           &s.Model,
		RemoteURL:       &s.RemoteURL,
		APIKey:          &s.APIKey,
	}
}

func (s Settings) HasEndpoint() bool {
	return s.RemoteURL != ""
}

// Redacted hides the API key for responses and logs.
func (s Settings) Redacted() Settings {
	if s.APIKey != "" {
		s.APIKey = "********"
	}
	return s
}
