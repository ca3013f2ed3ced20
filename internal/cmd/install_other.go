//go:build !linux

package cmd

import (
	"errors"
	"log/slog"
)

var errServiceUnsupported = errors.New("service management needs systemd and is only available on Linux")

func install(string, *slog.Logger) error { return errServiceUnsupported }

func uninstall(*slog.Logger) error { return errServiceUnsupported }
