package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the YAML config file layout. Environment
// variables take precedence over file values.
type FileConfig struct {
	Feishu struct {
		AppID     string `yaml:"app_id"`
		AppSecret string `yaml:"app_secret"`
	} `yaml:"feishu"`
	Store struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"store"`
	Staff struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	} `yaml:"staff"`
	Debug bool `yaml:"debug"`
}

// Load loads configuration from the environment, backfilled from a
// YAML config file when one is found.
func Load() *Config {
	cfg := LoadFromEnv()

	file, err := loadFileConfig(os.Getenv("INBOX_CONFIG_PATH"))
	if err != nil {
		fmt.Printf("[Config] Config file error: %v\n", err)
		return cfg
	}
	if file == nil {
		return cfg
	}

	if cfg.Feishu.AppID == "" {
		cfg.Feishu.AppID = file.Feishu.AppID
	}
	if cfg.Feishu.AppSecret == "" {
		cfg.Feishu.AppSecret = file.Feishu.AppSecret
	}
	if os.Getenv("INBOX_DB_PATH") == "" && file.Store.DBPath != "" {
		cfg.Store.DBPath = file.Store.DBPath
	}
	if cfg.Staff.ID == "" {
		cfg.Staff.ID = file.Staff.ID
	}
	if cfg.Staff.Name == "" {
		cfg.Staff.Name = file.Staff.Name
	}
	if os.Getenv("STAFF_TYPE") == "" && file.Staff.Type != "" {
		cfg.Staff.Type = file.Staff.Type
	}
	if file.Debug {
		cfg.Debug = true
	}
	return cfg
}

// loadFileConfig reads the YAML config file. A nil return with nil
// error means no file was found, which is fine.
func loadFileConfig(configPath string) (*FileConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/inbox-bridge.yaml",
			"./configs/inbox-bridge.yaml",
			"/etc/inbox-bridge/config.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "inbox-bridge.yaml"))
		}
	}

	var data []byte
	var loadedPath string

	for _, p := range paths {
		if p == "" {
			continue
		}
		b, err := os.ReadFile(p)
		if err == nil {
			data = b
			loadedPath = p
			break
		}
	}

	if data == nil {
		if configPath != "" {
			return nil, fmt.Errorf("read %s: file not found", configPath)
		}
		return nil, nil
	}

	fmt.Printf("[Config] Loading config from: %s\n", loadedPath)

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	return &file, nil
}
