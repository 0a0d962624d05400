//go:build linux

package main

import (
	"log/slog"
	"os"

	"github.com/1broseidon/winbridge/internal/config"
	"github.com/1broseidon/winbridge/internal/platform"
	"github.com/1broseidon/winbridge/internal/x11"
)

func openX11Host(cfg *config.Config, logger *slog.Logger) (platform.Host, func(), error) {
	session, err := x11.ResolveSession(os.Environ(), cfg.Display, cfg.XAuthority)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connecting to X server", "display", session.Display, "xauthority", session.XAuthority)
	host, err := platform.NewX11HostForSession(session, logger)
	if err != nil {
		return nil, nil, err
	}
	return host, host.Disconnect, nil
}
