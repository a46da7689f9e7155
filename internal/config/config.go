package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ProjectID     string
	LogLevel      string
	Port          string
	AuthRequired  bool
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
	DataRoot      string
	PostgresDSN   string
	S3Region      string
	S3Endpoint    string
	MaxWidgetRows int
	APIHosts      []string

	// client side
	DashboardAPI    string
	JobPollInterval time.Duration
}

func New() *Config {
	return &Config{
		ProjectID:       os.Getenv("PROJECTID"),
		LogLevel:        os.Getenv("LOGLEVEL"),
		Port:            getString("PORT", "8080"),
		AuthRequired:    getBool("AUTHREQUIRED", false),
		RedisAddr:       os.Getenv("REDISADDR"),
		RedisPassword:   os.Getenv("REDISPASSWORD"),
		CacheTTL:        getDuration("CACHETTL", 5*time.Minute),
		DataRoot:        os.Getenv("DATAROOT"),
		PostgresDSN:     os.Getenv("POSTGRESDSN"),
		S3Region:        getString("S3REGION", "us-east-1"),
		S3Endpoint:      os.Getenv("S3ENDPOINT"),
		MaxWidgetRows:   getInt("MAXWIDGETROWS", 10000),
		APIHosts:        getList("APIHOSTS"),
		DashboardAPI:    getString("DASHBOARDAPI", "http://localhost:8080"),
		JobPollInterval: getDuration("JOBPOLLINTERVAL", 3*time.Second),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma separated variable, dropping blank entries.
func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
