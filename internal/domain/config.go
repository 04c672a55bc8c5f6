package domain

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the server configuration.
// Credentials always come from the environment; transport settings may
// additionally come from an optional YAML configuration file.
type Config struct {
	Transport TransportConfig `mapstructure:"transport"`
	Jira      JiraConfig      `mapstructure:"jira"`
	Notion    NotionConfig    `mapstructure:"notion"`
}

// TransportConfig defines transport settings.
// Specifies whether to use stdio or HTTP transport.
type TransportConfig struct {
	Type string     `mapstructure:"type"` // "stdio" or "http"
	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// JiraConfig holds the Jira connection parameters.
// Projects is the allow-list of project keys that issue creation accepts.
type JiraConfig struct {
	Host     string   `mapstructure:"host"`
	Email    string   `mapstructure:"email"`
	APIToken string   `mapstructure:"api_token"`
	Projects []string `mapstructure:"projects"`
}

// BaseURL returns the Jira instance root URL. A bare host from the
// environment is given an https scheme.
func (c *JiraConfig) BaseURL() string {
	if strings.Contains(c.Host, "://") {
		return strings.TrimSuffix(c.Host, "/")
	}
	return "https://" + c.Host
}

// HasProject reports whether key is in the configured allow-list.
func (c *JiraConfig) HasProject(key string) bool {
	for _, p := range c.Projects {
		if p == key {
			return true
		}
	}
	return false
}

// NotionConfig holds the Notion connection parameters.
type NotionConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Environment variable bindings. Credentials are never read from the
// config file under different names; these are the only sources.
var envBindings = map[string]string{
	"jira.host":      "JIRA_HOST",
	"jira.email":     "JIRA_EMAIL",
	"jira.api_token": "JIRA_API_TOKEN",
	"jira.projects":  "JIRA_PROJECTS",
	"notion.api_key": "NOTION_API_KEY",
	"transport.type": "MCP_TRANSPORT",
}

// LoadConfig reads configuration from the environment and, when path is
// non-empty, an optional YAML file. Returns an error describing every
// missing or invalid value; the caller treats that as fatal.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("transport.type", "stdio")
	v.SetDefault("transport.http.host", "127.0.0.1")
	v.SetDefault("transport.http.port", 8080)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	config := &Config{
		Transport: TransportConfig{
			Type: v.GetString("transport.type"),
			HTTP: HTTPConfig{
				Host: v.GetString("transport.http.host"),
				Port: v.GetInt("transport.http.port"),
			},
		},
		Jira: JiraConfig{
			Host:     v.GetString("jira.host"),
			Email:    v.GetString("jira.email"),
			APIToken: v.GetString("jira.api_token"),
			Projects: projectList(v.Get("jira.projects")),
		},
		Notion: NotionConfig{
			APIKey: v.GetString("notion.api_key"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// projectList normalizes the allow-list, which arrives either as a YAML
// sequence or as a comma-separated environment variable.
func projectList(raw interface{}) []string {
	var projects []string
	switch v := raw.(type) {
	case string:
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				projects = append(projects, p)
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				projects = append(projects, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				projects = append(projects, s)
			}
		}
	}
	return projects
}

// Validate checks the configuration for completeness and correctness.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if c.Jira.Host == "" {
		errors = append(errors, "JIRA_HOST is required")
	} else if _, err := url.Parse(c.Jira.BaseURL()); err != nil {
		errors = append(errors, fmt.Sprintf("JIRA_HOST is invalid: %v", err))
	}
	if c.Jira.Email == "" {
		errors = append(errors, "JIRA_EMAIL is required")
	}
	if c.Jira.APIToken == "" {
		errors = append(errors, "JIRA_API_TOKEN is required")
	}
	if len(c.Jira.Projects) == 0 {
		errors = append(errors, "JIRA_PROJECTS is required (comma-separated project keys)")
	}
	if c.Notion.APIKey == "" {
		errors = append(errors, "NOTION_API_KEY is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// validateTransport validates the transport configuration.
func (c *Config) validateTransport() error {
	var errors []string

	if c.Transport.Type != "stdio" && c.Transport.Type != "http" {
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	if c.Transport.Type == "http" {
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}
