package cmd

import "log/slog"

// ServiceCommand manages the systemd unit that runs the bridge at boot.
type ServiceCommand struct {
	Install   ServiceInstall   `cmd:"" help:"Install and start a systemd service running 'padbridge run'"`
	Uninstall ServiceUninstall `cmd:"" help:"Stop and remove the systemd service"`
}

type ServiceInstall struct {
	Config string `help:"Config file the service passes to 'run'; create one with 'config init run'" required:"" type:"existingfile"`
}

func (c *ServiceInstall) Run(logger *slog.Logger) error {
	return install(c.Config, logger)
}

type ServiceUninstall struct{}

func (c *ServiceUninstall) Run(logger *slog.Logger) error {
	return uninstall(logger)
}
