// internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	ModeFiltered = "filtered"
	ModeNew      = "new"
)

type EmailConfig struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	SMTPHost string   `yaml:"smtp_host" json:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port" json:"smtp_port"`
	Username string   `yaml:"username" json:"username"`
	Password string   `yaml:"password,omitempty" json:"password,omitempty"` // prefer keychain or env
	From     string   `yaml:"from" json:"from"`
	To       []string `yaml:"to" json:"to"`
	// filtered: every qualifying job this window; new: only unseen ones.
	Mode string `yaml:"mode" json:"mode"`
}

type DesktopConfig struct {
	Enabled          bool `yaml:"enabled" json:"enabled"`
	StaggerSeconds   int  `yaml:"stagger_seconds" json:"stagger_seconds"`
	SummaryThreshold int  `yaml:"summary_threshold" json:"summary_threshold"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Token   string `yaml:"token,omitempty" json:"token,omitempty"`
	ChatID  int64  `yaml:"chat_id" json:"chat_id"`
}

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir" json:"data_dir"`
		Port    int    `yaml:"port" json:"port"` // 0 disables the status API
	} `yaml:"app" json:"app"`

	Source struct {
		URL            string `yaml:"url" json:"url"`
		SectionHeading string `yaml:"section_heading" json:"section_heading"`
		TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	} `yaml:"source" json:"source"`

	Filters struct {
		RemoteKeyword string `yaml:"remote_keyword" json:"remote_keyword"`
		MaxAgeDays    int    `yaml:"max_age_days" json:"max_age_days"`
	} `yaml:"filters" json:"filters"`

	Schedule struct {
		Cron       string `yaml:"cron" json:"cron"`
		Timezone   string `yaml:"timezone" json:"timezone"`
		RunOnStart bool   `yaml:"run_on_start" json:"run_on_start"`
	} `yaml:"schedule" json:"schedule"`

	Store struct {
		Backend string `yaml:"backend" json:"backend"`
		Path    string `yaml:"path" json:"path"`
	} `yaml:"store" json:"store"`

	Notify struct {
		Email    EmailConfig    `yaml:"email" json:"email"`
		Desktop  DesktopConfig  `yaml:"desktop" json:"desktop"`
		Telegram TelegramConfig `yaml:"telegram" json:"telegram"`
	} `yaml:"notify" json:"notify"`

	Logging struct {
		Level string `yaml:"level" json:"level"`
	} `yaml:"logging" json:"logging"`
}

func Default() Config {
	var cfg Config
	cfg.App.DataDir = "."
	cfg.Source.URL = "https://raw.githubusercontent.com/SimplifyJobs/New-Grad-Positions/dev/README.md"
	cfg.Source.SectionHeading = "## 💻 Software Engineering New Grad Roles"
	cfg.Source.TimeoutSeconds = 30
	cfg.Filters.RemoteKeyword = "remote"
	cfg.Filters.MaxAgeDays = 2
	cfg.Schedule.Cron = "0 9 */2 * *"
	cfg.Schedule.Timezone = "America/Chicago"
	cfg.Schedule.RunOnStart = true
	cfg.Store.Backend = BackendJSON
	cfg.Notify.Email.SMTPPort = 587
	cfg.Notify.Email.Mode = ModeFiltered
	cfg.Notify.Desktop.StaggerSeconds = 2
	cfg.Notify.Desktop.SummaryThreshold = 5
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads path over the defaults, so missing keys keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Location resolves the schedule timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Schedule.Timezone)
}

func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// StatePath is where the notified set lives. Relative paths are resolved
// against the data dir.
func (c Config) StatePath() string {
	p := c.Store.Path
	if p == "" {
		if c.Store.Backend == BackendSQLite {
			p = "jobwatch.db"
		} else {
			p = "notified_jobs.json"
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}

func (c Config) LockPath() string {
	return filepath.Join(c.App.DataDir, "watcher.lock")
}
