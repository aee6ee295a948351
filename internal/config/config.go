package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type PlannerConfig struct {
	WeekStartsOn       string `yaml:"week_starts_on"`
	DefaultExamMinutes int    `yaml:"default_exam_minutes"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

func (e EmailConfig) Enabled() bool { return e.SMTPHost != "" && e.FromEmail != "" }

type TelegramConfig struct {
	Token string `yaml:"token"`
	// Chats links owner ids to Telegram chat ids.
	Chats map[string]int64 `yaml:"chats"`
}

type CalendarConfig struct {
	Enabled           bool   `yaml:"enabled"`
	ClientSecretsFile string `yaml:"client_secrets_file"`
	TokenFile         string `yaml:"token_file"`
	CalendarID        string `yaml:"calendar_id"`
}

type ExportConfig struct {
	PDFFontPath string `yaml:"pdf_font_path"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Planner  PlannerConfig  `yaml:"planner"`
	Email    EmailConfig    `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
	Calendar CalendarConfig `yaml:"calendar"`
	Export   ExportConfig   `yaml:"export"`
}

// Load reads the YAML file at path (STUDYPLAN_CONFIG or DefaultPath when
// empty), applies a sibling .env file and STUDYPLAN_* variables, then fills
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("STUDYPLAN_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	dotEnv := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(dotEnv); err == nil {
		if err := godotenv.Load(dotEnv); err != nil {
			return nil, errors.Wrapf(err, "config.godotenv(%s)", dotEnv)
		}
	}

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "open %s", path)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("STUDYPLAN_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("STUDYPLAN_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("STUDYPLAN_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("STUDYPLAN_TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("STUDYPLAN_SMTP_PASSWORD"); v != "" {
		c.Email.SMTPPassword = v
	}
	if v := os.Getenv("STUDYPLAN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "STUDYPLAN_PORT")
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "file:studyplan.db?_pragma=foreign_keys(1)"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 7 * 24 * time.Hour
	}
	if c.Planner.WeekStartsOn == "" {
		c.Planner.WeekStartsOn = "monday"
	}
	if c.Planner.DefaultExamMinutes <= 0 {
		c.Planner.DefaultExamMinutes = 240
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Calendar.CalendarID == "" {
		c.Calendar.CalendarID = "primary"
	}
	if c.Calendar.TokenFile == "" {
		c.Calendar.TokenFile = "config/calendar-token.json"
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or STUDYPLAN_JWT_SECRET) is required")
	}
	if c.Database.DSN == "" {
		return errors.New("database.url (or STUDYPLAN_DB_DSN) is required")
	}
	return nil
}
