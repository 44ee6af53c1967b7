package profile

import (
	"fmt"
	"os"
)

// Profile is a named PostgreSQL connection string used to run EXPLAIN.
type Profile struct {
	Name    string `yaml:"name"`
	ConnStr string `yaml:"conn_str"`
}

func (c *Config) find(name string) int {
	for i, p := range c.Profiles {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func Resolve(name string) (string, error) {
	cfg, err := load()
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no profiles configured")
		}
		return "", err
	}

	i := cfg.find(name)
	if i < 0 {
		return "", fmt.Errorf("profile %q not found", name)
	}
	return cfg.Profiles[i].ConnStr, nil
}

func List() ([]Profile, error) {
	cfg, err := loadOrEmpty()
	if err != nil {
		return nil, err
	}
	return cfg.Profiles, nil
}

// Add creates a profile or replaces the connection string of an existing one.
func Add(name, connStr string) error {
	cfg, err := loadOrEmpty()
	if err != nil {
		return err
	}

	if i := cfg.find(name); i >= 0 {
		cfg.Profiles[i].ConnStr = connStr
	} else {
		cfg.Profiles = append(cfg.Profiles, Profile{Name: name, ConnStr: connStr})
	}
	return save(cfg)
}

func Remove(name string) error {
	cfg, err := load()
	if err != nil {
		return err
	}

	i := cfg.find(name)
	if i < 0 {
		return fmt.Errorf("profile %q not found", name)
	}
	cfg.Profiles = append(cfg.Profiles[:i], cfg.Profiles[i+1:]...)
	if cfg.Default == name {
		cfg.Default = ""
	}
	return save(cfg)
}

// ResolveConnStr picks the connection string for a command: an explicit
// --db wins, then --profile, then the configured default. An empty result
// means plans must be supplied as JSON.
func ResolveConnStr(db, profileName string) (string, error) {
	if db != "" {
		return db, nil
	}
	if profileName != "" {
		return Resolve(profileName)
	}

	cfg, err := loadOrEmpty()
	if err != nil {
		return "", err
	}
	if cfg.Default != "" {
		return Resolve(cfg.Default)
	}

	return "", nil
}

func SetDefault(name string) error {
	cfg, err := loadOrEmpty()
	if err != nil {
		return err
	}
	if cfg.find(name) < 0 {
		return fmt.Errorf("profile %q not found", name)
	}

	cfg.Default = name
	return save(cfg)
}

func ClearDefault() error {
	cfg, err := load()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cfg.Default = ""
	return save(cfg)
}

// GetDefault returns the default profile name, or "" when none is set.
func GetDefault() (string, error) {
	cfg, err := loadOrEmpty()
	if err != nil {
		return "", err
	}
	return cfg.Default, nil
}
