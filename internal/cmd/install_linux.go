//go:build linux

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const serviceName = "padbridge.service"

var servicePath = "/etc/systemd/system/padbridge.service"

var runSystemctl = func(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

func install(configPath string, logger *slog.Logger) error {
	exePath, err := currentExecutable()
	if err != nil {
		return err
	}
	if configPath, err = filepath.Abs(configPath); err != nil {
		return err
	}

	unit := systemdUnitContent(exePath, configPath)
	if err := os.WriteFile(servicePath, []byte(unit), 0o644); err != nil {
		return err
	}

	steps := [][]string{
		{"daemon-reload"},
		{"enable", serviceName},
		{"restart", serviceName},
	}
	for _, args := range steps {
		if err := runSystemctl(args...); err != nil {
			return err
		}
	}

	logger.Info("padbridge systemd service installed", "path", servicePath, "exe", exePath, "config", configPath)
	return nil
}

func uninstall(logger *slog.Logger) error {
	var errs []error

	if err := runSystemctl("stop", serviceName); err != nil {
		errs = append(errs, err)
	}
	if err := runSystemctl("disable", serviceName); err != nil {
		errs = append(errs, err)
	}
	if err := os.Remove(servicePath); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	if err := runSystemctl("daemon-reload"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("padbridge systemd service removed", "path", servicePath)
	return nil
}

// systemdUnitContent runs the bridge after bluetoothd and VIIPER are up and
// lets systemd restart it when every controller is gone.
func systemdUnitContent(exePath, configPath string) string {
	return fmt.Sprintf(`[Unit]
Description=padbridge BLE gamepad bridge
After=bluetooth.target viiper.service
Wants=bluetooth.target

[Service]
Type=simple
ExecStart=%q --config=%q run --reconnect
WorkingDirectory=%s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`, exePath, configPath, filepath.Dir(exePath))
}

func currentExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}
