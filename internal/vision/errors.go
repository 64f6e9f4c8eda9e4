package vision

import (
	"errors"
	"fmt"
)

var (
	ErrMisconfiguredEndpoint = errors.New("remote server URL is not configured")
	ErrRemote                = errors.New("remote VLM error")
	ErrInvalidResponseShape  = errors.New("invalid response structure from remote VLM server")
	ErrConnectionFailed      = errors.New("failed to connect to remote VLM server")
)

// RemoteError is returned when the endpoint answers with a non-2xx status.
type RemoteError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRemote, e.StatusText)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// Message renders err as the line shown to viewers in the chat feed.
func Message(err error) string {
	var remote *RemoteError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &remote):
		return "Remote VLM Error: " + remote.StatusText
	case errors.Is(err, ErrMisconfiguredEndpoint):
		return "Remote server URL is not configured."
	case errors.Is(err, ErrInvalidResponseShape):
		return "Invalid response structure from remote VLM server."
	case errors.Is(err, ErrConnectionFailed):
		return "Failed to connect to remote VLM server."
	default:
		return err.Error()
	}
}
