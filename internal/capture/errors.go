package capture

import "errors"

var (
	ErrPermissionDenied    = errors.New("permission denied or cancelled")
	ErrMisconfiguredSource = errors.New("external capture source not provided")
	ErrNotKeyframe         = errors.New("not a keyframe")
)

// Messages recorded in LastError and shown to viewers.
const (
	PermissionDeniedMessage    = "Permission denied or cancelled."
	MisconfiguredSourceMessage = "External capture source not provided"
)
