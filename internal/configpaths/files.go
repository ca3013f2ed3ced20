package configpaths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName = "padbridge"
	// ViiperKeyFile is where a local VIIPER server keeps its API password.
	ViiperKeyFile = "viiper.key.txt"
)

var configBases = []string{"padbridge", "config", "run", "replay"}

// DefaultConfigDir returns the platform-specific configuration directory for padbridge.
func DefaultConfigDir() (string, error) {
	return userConfigDir(appName, "padbridge")
}

// ViiperConfigDir returns the directory a local VIIPER server stores its key file in.
func ViiperConfigDir() (string, error) {
	return userConfigDir("viiper", "VIIPER")
}

func userConfigDir(unixName, windowsName string) (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("AppData"); appdata != "" {
			return filepath.Join(appdata, windowsName), nil
		}
		return "", errors.New("AppData not set")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, unixName), nil
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", unixName), nil
		}
		return "", errors.New("HOME not set")
	}
}

// ViiperKeyPaths lists where a local VIIPER server may keep its key file:
// the user's VIIPER config dir, then /etc/viiper where it runs as a service.
func ViiperKeyPaths() []string {
	var out []string
	if dir, err := ViiperConfigDir(); err == nil {
		out = append(out, filepath.Join(dir, ViiperKeyFile))
	}
	if runtime.GOOS != "windows" {
		out = append(out, filepath.Join("/etc/viiper", ViiperKeyFile))
	}
	return out
}

// DefaultNamedConfigPath returns the default config file path for the given format and base name (e.g., "run").
func DefaultNamedConfigPath(baseName, format string) (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, baseName+"."+Ext(format)), nil
}

// Ext maps a format name to its file extension.
func Ext(format string) string {
	switch format {
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return "json"
	}
}

// EnsureDir ensures the directory for a given file path exists.
func EnsureDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return os.MkdirAll(dir, 0o755)
}

// ConfigCandidatePaths builds candidate paths for config files per format.
// If userPath is provided, it is prioritized and routed to the matching loader by extension.
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(slice *[]string, p string) { *slice = append(*slice, p) }
	addAll := func(dir string) {
		for _, base := range configBases {
			add(&jsonPaths, filepath.Join(dir, base+".json"))
			add(&yamlPaths, filepath.Join(dir, base+".yaml"))
			add(&yamlPaths, filepath.Join(dir, base+".yml"))
			add(&tomlPaths, filepath.Join(dir, base+".toml"))
		}
	}

	if userPath != "" {
		switch ext := filepath.Ext(userPath); ext {
		case ".yaml", ".yml":
			add(&yamlPaths, userPath)
		case ".toml":
			add(&tomlPaths, userPath)
		default:
			add(&jsonPaths, userPath)
		}
	}

	if wd, err := os.Getwd(); err == nil {
		addAll(wd)
	}
	if dir, err := DefaultConfigDir(); err == nil {
		addAll(dir)
	}
	if runtime.GOOS != "windows" {
		addAll("/etc/padbridge")
	}
	return
}
