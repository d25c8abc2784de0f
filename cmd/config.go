package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type SourceConfig struct {
	Path string `mapstructure:"path"`
}

type TargetConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DBName   string `mapstructure:"dbname"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	DSN      string `mapstructure:"dsn"` // full DSN override
}

type Settings struct {
	BatchSize int      `mapstructure:"batch_size"`
	Tables    []string `mapstructure:"tables"` // tables the target schema expects; empty = all
}

type Config struct {
	Source   SourceConfig `mapstructure:"source"`
	Target   TargetConfig `mapstructure:"target"`
	Settings Settings     `mapstructure:"settings"`
}

// LoadConfig materializes the merged Viper state (flags > config file > env
// > defaults) into one struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Source.Path == "" {
		return nil, fmt.Errorf("source.path is required (via --source flag or config)")
	}
	if cfg.Settings.BatchSize < 1 {
		return nil, fmt.Errorf("settings.batch_size must be at least 1 (got %d)", cfg.Settings.BatchSize)
	}
	return &cfg, nil
}

// ConnString builds the lib/pq DSN, unless an explicit DSN override is set.
func (c TargetConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.DBName, c.User, c.Password, c.SSLMode)
}

// openSource opens the SQLite file read-only. A single connection keeps the
// sequential read cursor honest and avoids file-lock surprises.
func openSource(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("source database %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open source database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read source database: %w", err)
	}
	return db, nil
}

// openTarget connects to PostgreSQL. This run is the only writer, so a
// single connection is enough.
func openTarget(cfg TargetConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}
	return db, nil
}
