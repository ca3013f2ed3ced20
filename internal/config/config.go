// Package config defines the CLI structure and configuration for padbridge.
package config

import (
	"github.com/Alia5/padbridge/internal/cmd"
)

type Log struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" enum:"trace,debug,info,warn,error" env:"PADBRIDGE_LOG_LEVEL"`
	File    string `help:"Log file path (default: none; logs only to console)" env:"PADBRIDGE_LOG_FILE"`
	RawFile string `help:"Raw frame log file path, replayable with 'replay' (default: none)" env:"PADBRIDGE_LOG_RAW_FILE"`
}

// CLI is the root command structure for Kong CLI parsing.
type CLI struct {
	ConfigFile string `name:"config" help:"Configuration file (JSON, YAML or TOML)" type:"path" env:"PADBRIDGE_CONFIG"`
	Log        `embed:"" prefix:"log."`

	Run     cmd.Run            `cmd:"" help:"Bridge paired controllers to virtual DualShock 4 pads"`
	Replay  cmd.Replay         `cmd:"" help:"Feed a recorded capture through the pipeline"`
	Profile cmd.ProfileCommand `cmd:"" help:"Inspect device profiles"`
	Config  cmd.ConfigCommand  `cmd:"" help:"Configuration helpers"`
	Service cmd.ServiceCommand `cmd:"" help:"Manage the systemd service"`
}
