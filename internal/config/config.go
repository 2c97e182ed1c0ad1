// Package config предоставляет структуры и функции для загрузки конфига витрины.
//
// Значения читаются из YAML-файла по пути CONFIG_PATH и могут быть переопределены
// переменными окружения. Перед чтением подхватывается необязательный .env.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel                string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	CronSecret              string `yaml:"cron_secret" env:"CRON_SECRET"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Emby                    Emby      `yaml:"emby"`
	SMTP                    SMTP      `yaml:"smtp"`
	RabbitMQ                RabbitMQ  `yaml:"rabbitmq"`
	Admin                   Admin     `yaml:"admin"`
	Sweep                   Sweep     `yaml:"sweep"`
	Scheduler               Scheduler `yaml:"scheduler"`
	RateLimit               RateLimit `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken настройки токенов покупателей
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Emby подключение к медиасерверу.
type Emby struct {
	URL     string        `yaml:"url" env:"EMBY_URL"`
	APIKey  string        `yaml:"api_key" env:"EMBY_API_KEY"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
	RPS     float64       `yaml:"rps" env-default:"10"`
	Burst   int           `yaml:"burst" env-default:"20"`
}

// SMTP параметры почтового сервера.
type SMTP struct {
	Host string `yaml:"host" env:"SMTP_HOST"`
	Port string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User string `yaml:"user" env:"SMTP_USER"`
	Pass string `yaml:"pass" env:"SMTP_PASS"`
	From string `yaml:"from" env:"SMTP_FROM" env-default:"BuzzPlay <noreply@buzzplaymv.com>"`
	// Security режим шифрования: starttls, tls (SMTPS, обычно порт 465) или none для локального релея.
	Security    string        `yaml:"security" env:"SMTP_SECURITY" env-default:"starttls"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"SMTP_DIAL_TIMEOUT" env-default:"10s"`
}

// RabbitMQ параметры брокера для очереди писем.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Prefetch   int           `yaml:"prefetch" env-default:"10"`
}

// Admin учётные данные и сессии администратора.
type Admin struct {
	Username     string        `yaml:"username" env:"ADMIN_USERNAME"`
	PasswordHash string        `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"24h"`
	SecureCookie bool          `yaml:"secure_cookie" env-default:"true"`
}

// Sweep параметры пакетных задач.
type Sweep struct {
	BatchSize        int           `yaml:"batch_size" env-default:"100"`
	Concurrency      int           `yaml:"concurrency" env-default:"10"`
	ReminderDays     int           `yaml:"reminder_days" env-default:"3"`
	LockTTL          time.Duration `yaml:"lock_ttl" env-default:"30s"`
	OperationTimeout time.Duration `yaml:"operation_timeout" env-default:"20s"`
}

// Scheduler cron-выражения для cmd/scheduler.
type Scheduler struct {
	SweepSchedule     string `yaml:"sweep_schedule" env-default:"*/15 * * * *"`
	ReminderSchedule  string `yaml:"reminder_schedule" env-default:"0 9 * * *"`
	ReconcileSchedule string `yaml:"reconcile_schedule" env-default:"30 3 * * *"`
	SessionSchedule   string `yaml:"session_schedule" env-default:"0 * * * *"`
	MetricsAddress    string `yaml:"metrics_address" env:"SCHEDULER_METRICS_ADDRESS" env-default:":9091"`
}

// RateLimit фиксированное окно для публичных маршрутов.
type RateLimit struct {
	Limit  int           `yaml:"limit" env-default:"10"`
	Window time.Duration `yaml:"window" env-default:"1m"`
}

// Load читает конфиг из файла path.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if path == "" {
		return nil, fmt.Errorf("%s: config path is empty", op)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	// .env нужен только локально
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// IsProduction окружение prod.
func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Env: %s\n", c.Env)
	fmt.Fprintf(&b, "StorageConnectionString: %s\n", mask(c.StorageConnectionString))
	fmt.Fprintf(&b, "MigrationsPath: %s\n", c.MigrationsPath)
	fmt.Fprintf(&b, "RedisConnection:\n  Addr: %s\n  Password: %s\n  DB: %d\n", c.AddressRedis, mask(c.Password), c.DB)
	fmt.Fprintf(&b, "HTTPServer:\n  Address: %s\n  Timeout: %s\n  IdleTimeout: %s\n", c.AddressHTTP, c.TimeoutHTTP, c.IdleTimeout)
	fmt.Fprintf(&b, "JWTToken:\n  JWTSecretKey: %s\n  TokenTTL: %s\n", mask(c.JWTSecretKey), c.TokenTTL)
	fmt.Fprintf(&b, "Emby:\n  URL: %s\n  APIKey: %s\n  Timeout: %s\n", c.Emby.URL, mask(c.Emby.APIKey), c.Emby.Timeout)
	fmt.Fprintf(&b, "SMTP:\n  Host: %s\n  Port: %s\n  Security: %s\n  User: %s\n  Pass: %s\n",
		c.SMTP.Host, c.SMTP.Port, c.SMTP.Security, c.SMTP.User, mask(c.SMTP.Pass))
	fmt.Fprintf(&b, "RabbitMQ:\n  URL: %s\n", mask(c.RabbitMQ.URL))
	fmt.Fprintf(&b, "Admin:\n  Username: %s\n  SessionTTL: %s\n", c.Admin.Username, c.Admin.SessionTTL)
	fmt.Fprintf(&b, "Sweep:\n  BatchSize: %d\n  Concurrency: %d\n", c.Sweep.BatchSize, c.Sweep.Concurrency)
	fmt.Fprintf(&b, "CronSecret: %s\n", mask(c.CronSecret))
	return b.String()
}
