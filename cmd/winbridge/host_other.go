//go:build !linux

package main

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/winbridge/internal/config"
	"github.com/1broseidon/winbridge/internal/platform"
)

func openX11Host(*config.Config, *slog.Logger) (platform.Host, func(), error) {
	return nil, nil, errors.New("the X11 host is only available on linux; use --headless")
}
