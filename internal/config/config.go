package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type SMSConfig struct {
	APIKey   string `yaml:"api_key"`
	SenderID string `yaml:"sender_id"`
	DryRun   bool   `yaml:"dry_run"`
}

// SchedulerConfig holds one cron spec per job ("@every 1h" or a standard
// five-field spec). Empty fields use the built-in defaults.
type SchedulerConfig struct {
	OverdueTaskCheck  string `yaml:"overdue_task_check"`
	UpcomingTaskCheck string `yaml:"upcoming_task_check"`
	RecurringTasks    string `yaml:"recurring_tasks"`
	UpcomingDeadlines string `yaml:"upcoming_deadlines"`
	OverdueDeadlines  string `yaml:"overdue_deadlines"`
	DailySummary      string `yaml:"daily_summary"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
	SMS       SMSConfig       `yaml:"sms"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Auth      struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("LEXFLOW_JWT_SECRET")
	}
	return &cfg
}
