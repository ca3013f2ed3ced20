package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Alia5/padbridge/internal/config"
	"github.com/Alia5/padbridge/internal/configpaths"
	"github.com/Alia5/padbridge/internal/log"
	"github.com/Alia5/padbridge/internal/util"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("padbridge"),
		kong.Description("Bridge BLE gamepads to virtual DualShock 4 controllers over VIIPER"),
		kong.UsageOnError(),
		// Load configuration from JSON/YAML/TOML in priority order; flags/env override config values.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	rawLogger := setupRawLogger(&cli, logger, &closeFiles)

	ctx.Bind(logger)
	ctx.BindTo(rawLogger, (*log.RawLogger)(nil))

	finish(ctx.Run(), closeFiles, ctx.FatalIfErrorf)
}

// finish closes the log files before reporting err; fatal does not return.
func finish(err error, closers []io.Closer, fatal func(error, ...any)) {
	for _, c := range closers {
		_ = c.Close()
	}
	if err != nil {
		util.WaitForEnter(os.Stdin, os.Stderr)
	}
	fatal(err)
}

func findUserConfig(args []string) string {
	for i, a := range args {
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("PADBRIDGE_CONFIG")
}

func setupRawLogger(cli *config.CLI, logger *slog.Logger, closeFiles *[]io.Closer) log.RawLogger {
	if cli.Log.RawFile != "" {
		f, err := os.OpenFile(cli.Log.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open raw log file", "file", cli.Log.RawFile, "error", err)
			return log.NewRaw(nil)
		}
		*closeFiles = append(*closeFiles, f)
		return log.NewRaw(f)
	}
	if cli.Log.Level == "trace" {
		return log.NewRaw(os.Stdout)
	}
	return log.NewRaw(nil)
}
