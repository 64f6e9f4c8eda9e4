package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/live-commentary/internal/telemetry"
	"go.uber.org/fx"
)

func StartTelemetry(lc fx.Lifecycle, cfg *Config, logger *slog.Logger) error {
	telemetry.Init()

	shutdown, err := telemetry.InitTracing(cfg.OTLPEndpoint, cfg.ServiceName, version, logger)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return shutdown(ctx)
		},
	})
	return nil
}

var TelemetryModule = fx.Options(
	fx.Invoke(StartTelemetry),
)
