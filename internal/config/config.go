package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	LinkTTL   time.Duration
}

// Enabled: выгрузки публикуются в S3, только если задан бакет.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

type Config struct {
	BotToken    string
	DatabaseURL string
	TeacherIDs  []int64 // кому разрешено пользоваться ботом помимо владельцев курсов
	Location    *time.Location
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Release     string
	ExportDir   string
	S3          S3Config

	ReviewJobInterval time.Duration
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Europe/Moscow")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	teacherIDs, err := parseIDs(os.Getenv("TEACHER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("TEACHER_IDS: %w", err)
	}
	interval, err := time.ParseDuration(getenv("REVIEW_JOB_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("REVIEW_JOB_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("REVIEW_JOB_INTERVAL: must be positive, got %s", interval)
	}
	linkTTL, err := time.ParseDuration(getenv("S3_LINK_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("S3_LINK_TTL: %w", err)
	}

	botToken, err := requireEnv("BOT_TOKEN")
	if err != nil {
		return nil, err
	}
	dbURL, err := requireEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BotToken:    botToken,
		DatabaseURL: dbURL,
		TeacherIDs:  teacherIDs,
		Location:    loc,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Release:     getenv("RELEASE", "dev"),
		ExportDir:   getenv("EXPORT_DIR", os.TempDir()),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getenv("S3_REGION", "us-east-1"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			UseSSL:    getenv("S3_USE_SSL", "true") == "true",
			LinkTTL:   linkTTL,
		},
		ReviewJobInterval: interval,
	}
	return cfg, nil
}

// IsTeacher: есть ли telegram id в списке TEACHER_IDS.
func (c *Config) IsTeacher(id int64) bool {
	for _, t := range c.TeacherIDs {
		if t == id {
			return true
		}
	}
	return false
}

func requireEnv(k string) (string, error) {
	v := os.Getenv(k)
	if v == "" {
		return "", fmt.Errorf("required env %s is empty", k)
	}
	return v, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
