package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host     string
	Port     int
	BaseURL  string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
}

type MailConfig struct {
	BaseURL     string
	APIKey      string
	FromAddress string
	FromName    string
}

type ZohoConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccountsURL  string
	APIBaseURL   string
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Google   GoogleConfig
	Mail     MailConfig
	Zoho     ZohoConfig
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads configuration from the environment (and .env when present)
// and caches it for Get/GetSafe.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.loglevel", "info")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "fqt_booking")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("google.calendarid", "primary")
	v.SetDefault("zoho.accountsurl", "https://accounts.zoho.com")
	v.SetDefault("zoho.apibaseurl", "https://www.zohoapis.com")

	cfg := &Config{
		Server: ServerConfig{
			Host:     v.GetString("server.host"),
			Port:     v.GetInt("server.port"),
			BaseURL:  v.GetString("server.baseurl"),
			LogLevel: v.GetString("server.loglevel"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("google.clientid"),
			ClientSecret: v.GetString("google.clientsecret"),
			RefreshToken: v.GetString("google.refreshtoken"),
			CalendarID:   v.GetString("google.calendarid"),
		},
		Mail: MailConfig{
			BaseURL:     v.GetString("mail.baseurl"),
			APIKey:      v.GetString("mail.apikey"),
			FromAddress: v.GetString("mail.fromaddress"),
			FromName:    v.GetString("mail.fromname"),
		},
		Zoho: ZohoConfig{
			ClientID:     v.GetString("zoho.clientid"),
			ClientSecret: v.GetString("zoho.clientsecret"),
			RefreshToken: v.GetString("zoho.refreshtoken"),
			AccountsURL:  v.GetString("zoho.accountsurl"),
			APIBaseURL:   v.GetString("zoho.apibaseurl"),
		},
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()

	return cfg, nil
}

// GetSafe returns the loaded config and whether it is initialized.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
