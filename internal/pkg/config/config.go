package config

import (
	"fmt"
	"time"

	"todo-notifier/internal/pkg/schedule"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server ServerConfig
	DB     DBConfig
	CORS   CORSConfig
	Log    LogConfig
	Auth   AuthConfig
	Notify NotifyConfig
	Mail   MailConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone   string `envconfig:"LOG_TIMEZONE" default:"Europe/Helsinki"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

// Service tokens presented by the web app and the change-trigger function.
type AuthConfig struct {
	Secret   string `envconfig:"AUTH_SECRET" required:"true"`
	Issuer   string `envconfig:"AUTH_ISSUER" default:"family-todos"`
	Disabled bool   `envconfig:"AUTH_DISABLED" default:"false"`
}

type NotifyConfig struct {
	TimeZone         string        `envconfig:"NOTIFY_TIMEZONE" default:"Europe/Helsinki"`
	SweepTimes       []string      `envconfig:"NOTIFY_SWEEP_TIMES" default:"00:00,12:00"`
	SweepPageSize    int           `envconfig:"NOTIFY_SWEEP_PAGE_SIZE" default:"100"`
	SweepConcurrency int           `envconfig:"NOTIFY_SWEEP_CONCURRENCY" default:"4"`
	SendTimeout      time.Duration `envconfig:"NOTIFY_SEND_TIMEOUT" default:"15s"`
	OverdueInterval  time.Duration `envconfig:"NOTIFY_OVERDUE_INTERVAL" default:"12h"`
	DriftTolerance   time.Duration `envconfig:"NOTIFY_DRIFT_TOLERANCE" default:"10m"`
	FreshWindow      time.Duration `envconfig:"NOTIFY_FRESH_WINDOW" default:"2m"`
	ListenChannel    string        `envconfig:"NOTIFY_LISTEN_CHANNEL" default:"task_changed"`
	ListenEnabled    bool          `envconfig:"NOTIFY_LISTEN_ENABLED" default:"true"`
	ListenWorkers    int           `envconfig:"NOTIFY_LISTEN_WORKERS" default:"4"`
	SchedulerEnabled bool          `envconfig:"NOTIFY_SCHEDULER_ENABLED" default:"true"`
}

type MailConfig struct {
	Driver     string `envconfig:"MAIL_DRIVER" default:"smtp"`
	From       string `envconfig:"MAIL_FROM" default:"todos@familyleppanen.com"`
	FromName   string `envconfig:"MAIL_FROM_NAME" default:"Family Todo System"`
	SMTPHost   string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort   string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser   string `envconfig:"SMTP_USER"`
	SMTPPass   string `envconfig:"SMTP_PASSWORD"`
	SMTPUseTLS bool   `envconfig:"SMTP_STARTTLS" default:"true"`
	AppBaseURL string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

// Location resolves the reference timezone used for every calendar-day comparison.
func (c NotifyConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func (c NotifyConfig) Schedule() (*schedule.Daily, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	daily, err := schedule.Parse(c.SweepTimes, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_SWEEP_TIMES: %w", err)
	}
	return daily, nil
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if _, err := cfg.Notify.Schedule(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 4,
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Auth: AuthConfig{
			Secret: "test-secret",
			Issuer: "family-todos",
		},
		Notify: NotifyConfig{
			TimeZone:         "Europe/Helsinki",
			SweepTimes:       []string{"00:00", "12:00"},
			SweepPageSize:    2,
			SweepConcurrency: 2,
			SendTimeout:      2 * time.Second,
			OverdueInterval:  12 * time.Hour,
			DriftTolerance:   10 * time.Minute,
			FreshWindow:      2 * time.Minute,
			ListenChannel:    "task_changed",
			ListenWorkers:    2,
		},
		Mail: MailConfig{
			Driver:     "log",
			From:       "todos@example.com",
			FromName:   "Family Todo System",
			AppBaseURL: "http://localhost:8080",
		},
	}
}
