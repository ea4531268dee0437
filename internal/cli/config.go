package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/sbomwalk/pkg/errors"
)

// Config holds the settings a run can pick up from a TOML file. Flags
// override file values, which override the built-in defaults.
type Config struct {
	Token    string `toml:"token"`
	KeysFile string `toml:"keys_file"`

	OutputDir string   `toml:"output_dir"`
	CacheDir  string   `toml:"cache_dir"`
	RedisURL  string   `toml:"redis_url"`
	CacheTTL  duration `toml:"cache_ttl"`

	Attempts      int      `toml:"attempts"`
	ResolvePacing duration `toml:"resolve_pacing"`
	FetchPacing   duration `toml:"fetch_pacing"`
}

// duration lets TOML carry values like "30m" or "1h30m".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func defaultConfig() Config {
	return Config{
		OutputDir: "sbomwalk-output",
		CacheTTL:  duration(24 * time.Hour),
		Attempts:  3,
	}
}

// defaultConfigPath returns ~/.config/sbomwalk/config.toml.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sbomwalk", "config.toml")
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing file at the default location is not an error;
// a missing file the user asked for explicitly is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config file %s", path)
	}
	return cfg, nil
}
