/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/xo/dburl"
)

// Supported values of ConnectionConfig.Type.
const (
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
	TypeSQLite   = "sqlite"
)

// AbstractDatabaseManager defines the operations for managing a database
// connection, seeding data, and reporting health.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	GetConfig() *ConnectionConfig
	InitData(ctx context.Context, cfg *DataInitConfig) ([]ExecutionResult, error)
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats returned by the manager.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// ConnectionConfig describes how to connect to a database and tune its pool.
// URL, when set, takes precedence over the discrete fields.
type ConnectionConfig struct {
	Type            string        `yaml:"type" json:"type"` // postgres, mysql, sqlite
	URL             string        `yaml:"url" json:"url,omitempty"`
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	Username        string        `yaml:"username" json:"username"`
	Password        string        `yaml:"password" json:"-"`
	DBName          string        `yaml:"dbname" json:"dbname"`
	Schema          string        `yaml:"schema" json:"schema"`
	SSLMode         string        `yaml:"sslmode" json:"sslmode"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	EnableQueryLog  bool          `yaml:"enable_query_log" json:"enable_query_log"`
	SlowQueryTime   time.Duration `yaml:"slow_query_time" json:"slow_query_time"`
}

// DataInitConfig controls seed SQL execution.
type DataInitConfig struct {
	AutoInitOnStartup bool   `yaml:"auto_init_on_startup" json:"auto_init_on_startup"`
	Filepath          string `yaml:"filepath" json:"filepath"`
	Environment       string `yaml:"environment" json:"environment"`
}

// DefaultConnectionConfig returns the local parking database on PostgreSQL.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:            TypePostgres,
		Host:            "127.0.0.1",
		Port:            5432,
		Username:        "postgres",
		DBName:          "parking_lab2",
		Schema:          "public",
		SSLMode:         "disable",
		MaxIdleConns:    2,
		MaxOpenConns:    4,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		EnableQueryLog:  false,
		SlowQueryTime:   time.Second * 2,
	}
}

// SQLitePath is the SQLite DSN for DBName: ".db" is appended to a bare
// name.
func (c *ConnectionConfig) SQLitePath() string {
	dsn := c.DBName
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, ".") {
		dsn += ".db"
	}
	return dsn
}

// NormalizeType folds driver aliases into one of the supported types.
func NormalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "postgres", "postgresql", "pg", "pgsql":
		return TypePostgres
	case "mysql", "mariadb":
		return TypeMySQL
	case "sqlite", "sqlite3", "file", "moderncsqlite":
		return TypeSQLite
	default:
		return strings.ToLower(strings.TrimSpace(t))
	}
}

// ApplyURL copies the settings encoded in URL onto the discrete fields.
func (c *ConnectionConfig) ApplyURL() error {
	if c.URL == "" {
		return nil
	}
	u, err := dburl.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid database url: %w", err)
	}
	c.Type = NormalizeType(u.Driver)
	switch c.Type {
	case TypeSQLite:
		c.DBName = u.DSN
		return nil
	case TypePostgres, TypeMySQL:
	default:
		return fmt.Errorf("unsupported database url driver: %s", u.Driver)
	}
	if h := u.Hostname(); h != "" {
		c.Host = h
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid database url port %q: %w", p, err)
		}
		c.Port = port
	}
	if u.User != nil {
		c.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			c.Password = pw
		}
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		c.DBName = name
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.SSLMode = mode
	}
	return nil
}

// SchemaOrDefault returns the catalog schema used for metadata lookups.
func (c *ConnectionConfig) SchemaOrDefault() string {
	if c.Schema != "" {
		return c.Schema
	}
	if NormalizeType(c.Type) == TypePostgres {
		return "public"
	}
	return ""
}
