package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFileName = "profiles.yaml"

var configDirFunc = configDir

// ErrConfigExists is returned by Init when a config file is already present.
var ErrConfigExists = errors.New("config file already exists")

type Config struct {
	Default  string         `yaml:"default,omitempty"`
	Render   RenderSettings `yaml:"render,omitempty"`
	Profiles []Profile      `yaml:"profiles"`
}

// RenderSettings supplies defaults for the dot and serve commands.
// Explicit flags always win.
type RenderSettings struct {
	Simplify *bool  `yaml:"simplify,omitempty"`
	Format   string `yaml:"format,omitempty"`
	Title    string `yaml:"title,omitempty"`
}

const exampleConfig = `# pgplandot configuration
#
# default: name of the profile used when neither --db nor --profile is given.
default: local

render:
  # collapse pass-through target lists into a single placeholder node
  simplify: true
  # dot, svg, png or json
  format: dot

profiles:
  - name: local
    conn_str: postgres://postgres@localhost:5432/postgres?sslmode=disable
`

// RenderDefaults returns the render section of the config file, or the
// zero value when no config exists.
func RenderDefaults() (RenderSettings, error) {
	cfg, err := load()
	if err != nil {
		if os.IsNotExist(err) {
			return RenderSettings{}, nil
		}
		return RenderSettings{}, err
	}
	return cfg.Render, nil
}

// Init writes the example template and returns its path.
func Init(force bool) (string, error) {
	path, err := configPath()
	if err != nil {
		return "", err
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	if err := ensureConfigDir(); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return "", fmt.Errorf("writing config %s: %w", path, err)
	}
	return path, nil
}

// Path reports where the config file lives.
func Path() (string, error) {
	return configPath()
}

func load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if f := cfg.Render.Format; f != "" && !validFormat(f) {
		return nil, fmt.Errorf("parsing config %s: unknown render format %q", path, f)
	}

	return &cfg, nil
}

// loadOrEmpty treats a missing config file as an empty one.
func loadOrEmpty() (*Config, error) {
	cfg, err := load()
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	return cfg, nil
}

func validFormat(f string) bool {
	switch f {
	case "dot", "svg", "png", "json":
		return true
	}
	return false
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("finding config directory: %w", err)
	}
	return filepath.Join(base, "pgplandot"), nil
}

func configPath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func ensureConfigDir() error {
	dir, err := configDirFunc()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

func save(cfg *Config) error {
	if err := ensureConfigDir(); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}

	return nil
}
