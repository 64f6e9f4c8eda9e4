package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/live-commentary/internal/commentary"
	"github.com/eleven-am/live-commentary/internal/screenshare"
	"github.com/eleven-am/live-commentary/internal/settings"
	"github.com/eleven-am/live-commentary/internal/vision"
	"go.uber.org/fx"
)

func ProvideScreenshareConfig(cfg *Config) screenshare.Config {
	iceServers := make([]screenshare.ICEServerConfig, 0, len(cfg.RTCICEServers))
	for _, s := range cfg.RTCICEServers {
		iceServers = append(iceServers, screenshare.ICEServerConfig{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}

	return screenshare.Config{
		ICEServers: iceServers,
		PortRange: screenshare.PortRange{
			Min: cfg.RTCPortMin,
			Max: cfg.RTCPortMax,
		},
		GrantTimeout: cfg.ScreenshareGrantTimeout,
	}
}

func ProvideScreenshareBroker(lc fx.Lifecycle, cfg screenshare.Config, logger *slog.Logger) (*screenshare.Broker, error) {
	broker, err := screenshare.NewBroker(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			broker.Close()
			return nil
		},
	})
	return broker, nil
}

func ProvideVisionClient(cfg *Config, logger *slog.Logger) vision.Provider {
	return vision.NewClient(vision.Config{
		Timeout: cfg.VLMTimeout,
		Logger:  logger,
	})
}

func ProvideWidgetManager(
	lc fx.Lifecycle,
	provider vision.Provider,
	store settings.Store,
	broker *screenshare.Broker,
	logger *slog.Logger,
) *commentary.Manager {
	mgr := commentary.NewManager(commentary.ManagerConfig{
		Provider:    provider,
		Store:       store,
		Display:     broker,
		FrameClient: &http.Client{Timeout: 10 * time.Second},
		Logger:      logger,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return mgr.Close()
		},
	})
	return mgr
}

func ProvideWidgetHandler(lc fx.Lifecycle, mgr *commentary.Manager, broker *screenshare.Broker, cfg *Config, logger *slog.Logger) *commentary.Handler {
	limits := commentary.DefaultRateLimiterConfig()
	limits.RequestsPerSecond = cfg.RateLimitRPS
	limits.Burst = cfg.RateLimitBurst
	h := commentary.NewHandler(mgr, broker, limits, logger.With("handler", "widgets"))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			h.Close()
			return nil
		},
	})
	return h
}

var WidgetsModule = fx.Options(
	fx.Provide(
		ProvideScreenshareConfig,
		ProvideScreenshareBroker,
		ProvideVisionClient,
		ProvideWidgetManager,
		ProvideWidgetHandler,
	),
)
