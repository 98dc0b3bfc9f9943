package config

import "fmt"

// DatabaseConfig selects and configures the journal database.
type DatabaseConfig struct {
	Driver     string         `yaml:"driver"`
	MySQL      MySQLConfig    `yaml:"mysql"`
	PostgreSQL PostgresConfig `yaml:"postgres"`
	SQLite     SQLiteConfig   `yaml:"sqlite"`
	LogLevel   string         `yaml:"log_level"`
}

// MySQLConfig holds MySQL specific configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// PostgresConfig holds PostgreSQL specific configuration
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

func (d *DatabaseConfig) applyDefaults() {
	if d.Driver == "" {
		d.Driver = "sqlite"
	}
	if d.SQLite.Path == "" {
		d.SQLite.Path = "journal.db"
	}
	if d.MySQL.Port == 0 {
		d.MySQL.Port = 3306
	}
	if d.PostgreSQL.Port == 0 {
		d.PostgreSQL.Port = 5432
	}
	if d.PostgreSQL.SSLMode == "" {
		d.PostgreSQL.SSLMode = "disable"
	}
	if d.LogLevel == "" {
		d.LogLevel = "warn"
	}
}

func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case "mysql":
		if d.MySQL.Host == "" || d.MySQL.User == "" || d.MySQL.DBName == "" {
			return fmt.Errorf("mysql host, user and dbname are required")
		}
	case "postgres":
		if d.PostgreSQL.Host == "" || d.PostgreSQL.User == "" || d.PostgreSQL.DBName == "" {
			return fmt.Errorf("postgres host, user and dbname are required")
		}
	case "sqlite":
		if d.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", d.Driver)
	}
	return nil
}

// ResolvePaths returns a copy with a relative SQLite file anchored at root.
func (d DatabaseConfig) ResolvePaths(root string) DatabaseConfig {
	if d.SQLite.Path != ":memory:" {
		d.SQLite.Path = Resolve(root, d.SQLite.Path)
	}
	return d
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case "mysql":
		m := d.MySQL
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			m.User, m.Password, m.Host, m.Port, m.DBName)
	case "postgres":
		pg := d.PostgreSQL
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode)
	case "sqlite":
		return d.SQLite.Path
	}
	return ""
}
