package conf

import (
	"os"
	"path/filepath"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
)

// Config represents application configuration
type Config struct {
	// Feishu configuration
	Feishu FeishuConfig

	// Store configuration
	Store StoreConfig

	// Staff identity for CLI and MCP surfaces
	Staff StaffConfig

	// Debug mode
	Debug bool
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
}

// StoreConfig contains store configuration
type StoreConfig struct {
	DBPath string
}

// StaffConfig identifies the staff member acting through a local
// surface (MCP server, send-message CLI).
type StaffConfig struct {
	ID   string
	Name string
	Type string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Store DB path
	dbPath := os.Getenv("INBOX_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".inbox-bridge", "inbox.db")
	}

	staffType := os.Getenv("STAFF_TYPE")
	if staffType == "" {
		staffType = string(domain.StaffTypeAgent)
	}

	return &Config{
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
		},
		Store: StoreConfig{
			DBPath: dbPath,
		},
		Staff: StaffConfig{
			ID:   os.Getenv("STAFF_ID"),
			Name: os.Getenv("STAFF_NAME"),
			Type: staffType,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}
}

// ToStaff converts the configured identity to a domain staff member.
func (c *StaffConfig) ToStaff() *domain.Staff {
	return &domain.Staff{
		ID:   c.ID,
		Name: c.Name,
		Type: domain.StaffType(c.Type),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
	}
	return nil
}

// ValidateStaff checks the parts local surfaces need.
func (c *Config) ValidateStaff() error {
	if c.Staff.ID == "" {
		return &ConfigError{Field: "STAFF_ID", Message: "required"}
	}
	switch domain.StaffType(c.Staff.Type) {
	case domain.StaffTypeAdmin, domain.StaffTypeAgent, domain.StaffTypeBot:
	default:
		return &ConfigError{Field: "STAFF_TYPE", Message: "must be admin, agent or bot"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
