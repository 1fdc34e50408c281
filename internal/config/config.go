package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents runtime configuration for the server and the tool worker.
type Config struct {
	BasicConfig BasicConfig  `mapstructure:"basic_config"`
	Model       ModelConfig  `mapstructure:"model"`
	Notes       NotesConfig  `mapstructure:"notes"`
	Worker      WorkerConfig `mapstructure:"worker"`

	// path of the file the configuration was read from, empty when env only
	source string
}

type BasicConfig struct {
	ServerAddress  string        `mapstructure:"server_address"`
	UploadDir      string        `mapstructure:"upload_dir"`
	StaticDir      string        `mapstructure:"static_dir"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DeleteUploads  bool          `mapstructure:"delete_uploads"`
	UploadTTL      time.Duration `mapstructure:"upload_ttl"`
	CleanInterval  time.Duration `mapstructure:"clean_interval"`
}

// ModelConfig selects the chat model the agent runs on.
type ModelConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxSteps int           `mapstructure:"max_steps"`
}

type NotesConfig struct {
	Token        string `mapstructure:"token"`
	ParentPageID string `mapstructure:"parent_page_id"`
}

// WorkerConfig controls how the tool worker subprocess is launched.
// An empty Command re-executes the running binary.
type WorkerConfig struct {
	Command          string        `mapstructure:"command"`
	Args             []string      `mapstructure:"args"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	ToolTimeout      time.Duration `mapstructure:"tool_timeout"`
}

const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// Error reports missing or invalid settings.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "configuration error: " + strings.Join(e.Problems, "; ")
}

// ErrConfiguration matches any *Error with errors.Is.
var ErrConfiguration = errors.New("configuration error")

func (e *Error) Is(target error) bool {
	return target == ErrConfiguration
}

var envBindings = map[string][]string{
	"model.api_key":        {"DOCNOTES_MODEL_API_KEY", "OPENAI_API_KEY"},
	"notes.token":          {"DOCNOTES_NOTES_TOKEN", "NOTION_API_TOKEN"},
	"notes.parent_page_id": {"DOCNOTES_NOTES_PARENT_PAGE_ID", "NOTION_PAGE_ID"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("basic_config.server_address", ":8000")
	v.SetDefault("basic_config.upload_dir", "uploads")
	v.SetDefault("basic_config.static_dir", "static")
	v.SetDefault("basic_config.request_timeout", 2*time.Minute)
	v.SetDefault("basic_config.delete_uploads", false)
	v.SetDefault("basic_config.upload_ttl", time.Duration(0))
	v.SetDefault("basic_config.clean_interval", time.Hour)

	v.SetDefault("model.provider", ProviderOpenAI)
	v.SetDefault("model.model", "gpt-4o-mini")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.timeout", 60*time.Second)
	v.SetDefault("model.max_steps", 12)

	v.SetDefault("notes.token", "")
	v.SetDefault("notes.parent_page_id", "")

	v.SetDefault("worker.command", "")
	v.SetDefault("worker.args", []string{})
	v.SetDefault("worker.handshake_timeout", 30*time.Second)
	v.SetDefault("worker.tool_timeout", 60*time.Second)
}

// Load reads configuration from the provided path (optional) and overlays
// environment variables. Validation is left to Validate / ValidateWorker.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DOCNOTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var absPath string
	if path != "" {
		var err error
		absPath, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		v.SetConfigFile(absPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", absPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.source = absPath

	if absPath != "" {
		base := filepath.Dir(absPath)
		cfg.BasicConfig.UploadDir = resolveRelative(base, cfg.BasicConfig.UploadDir)
		cfg.BasicConfig.StaticDir = resolveRelative(base, cfg.BasicConfig.StaticDir)
	}
	cfg.Model.Provider = strings.ToLower(strings.TrimSpace(cfg.Model.Provider))

	return &cfg, nil
}

// Source returns the absolute path of the loaded config file, if any.
func (c *Config) Source() string {
	return c.source
}

// Validate checks everything the server needs before accepting requests.
// Notes settings are checked too: the worker inherits them and would
// otherwise only fail inside the first request.
func (c *Config) Validate() error {
	var problems []string
	problems = append(problems, c.modelProblems()...)
	problems = append(problems, c.notesProblems()...)
	if c.BasicConfig.UploadDir == "" {
		problems = append(problems, "basic_config.upload_dir must be configured")
	}
	if len(problems) > 0 {
		return &Error{Problems: problems}
	}
	return nil
}

// ValidateWorker checks the settings the tool worker needs.
func (c *Config) ValidateWorker() error {
	if problems := c.notesProblems(); len(problems) > 0 {
		return &Error{Problems: problems}
	}
	return nil
}

func (c *Config) modelProblems() []string {
	var problems []string
	switch c.Model.Provider {
	case ProviderOpenAI, ProviderClaude, ProviderGemini:
	default:
		problems = append(problems, fmt.Sprintf("model.provider %q is not supported", c.Model.Provider))
	}
	if strings.TrimSpace(c.Model.Model) == "" {
		problems = append(problems, "model.model must be configured")
	}
	if strings.TrimSpace(c.Model.APIKey) == "" {
		problems = append(problems, "model.api_key (OPENAI_API_KEY) must be configured")
	}
	return problems
}

func (c *Config) notesProblems() []string {
	var problems []string
	if strings.TrimSpace(c.Notes.Token) == "" {
		problems = append(problems, "notes.token (NOTION_API_TOKEN) must be configured")
	}
	if strings.TrimSpace(c.Notes.ParentPageID) == "" {
		problems = append(problems, "notes.parent_page_id (NOTION_PAGE_ID) must be configured")
	}
	return problems
}

func resolveRelative(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
