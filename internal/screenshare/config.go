package screenshare

import "time"

type Config struct {
	ICEServers []ICEServerConfig
	PortRange  PortRange
	MaxSDPSize int
	// GrantTimeout bounds how long a capture request waits for the viewer.
	GrantTimeout time.Duration
	// KeyframeInterval is how often a keyframe is requested from the sender.
	KeyframeInterval time.Duration
}

type ICEServerConfig struct {
	URLs       []string
	Username   string
	Credential string
}

type PortRange struct {
	Min int
	Max int
}

func (c Config) withDefaults() Config {
	if c.GrantTimeout <= 0 {
		c.GrantTimeout = 60 * time.Second
	}
	if c.KeyframeInterval <= 0 {
		c.KeyframeInterval = 2 * time.Second
	}
	if c.MaxSDPSize <= 0 {
		c.MaxSDPSize = 64 << 10
	}
	return c
}
