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

// Package config loads the console configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/types"
	"github.com/tomoncle/parkdesk/utils"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no path is given and the file exists.
const DefaultPath = "configs/parkdesk.yaml"

type Config struct {
	Database database.ConnectionConfig `yaml:"database"`
	DataInit database.DataInitConfig   `yaml:"data_init"`
	Console  ConsoleConfig             `yaml:"console"`
	Backup   BackupConfig              `yaml:"backup"`
	Logging  LoggingConfig             `yaml:"logging"`
}

type ConsoleConfig struct {
	PageSize        int      `yaml:"page_size"`
	ManualKeyTables []string `yaml:"manual_key_tables"`
	Tables          []string `yaml:"tables"`
	StartTable      string   `yaml:"start_table"`
}

type BackupConfig struct {
	Tool   string `yaml:"tool"`
	Output string `yaml:"output"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the configuration of the local parking database.
func Default() *Config {
	return &Config{
		Database: *database.DefaultConnectionConfig(),
		DataInit: database.DataInitConfig{Filepath: "configs/sql"},
		Console: ConsoleConfig{
			PageSize:        types.DefaultPageSize,
			ManualKeyTables: []string{"car", "driver", "car_on_parking", "event_car", "event_empl"},
			Tables:          []string{"employee", "parking_place", "parking_event"},
			StartTable:      "parking_place",
		},
		Backup:  BackupConfig{Output: "parking.dump"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path reads DefaultPath when it exists and otherwise keeps the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if cfg.Console.PageSize < 1 {
		cfg.Console.PageSize = types.DefaultPageSize
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the directory when needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Console.PageSize = utils.EnvDefaultInt("PARKDESK_PAGE_SIZE", c.Console.PageSize)
	c.Console.ManualKeyTables = utils.EnvList("PARKDESK_MANUAL_KEY_TABLES", c.Console.ManualKeyTables)
	c.Console.StartTable = utils.EnvDefaultString("PARKDESK_START_TABLE", c.Console.StartTable)
	c.Backup.Tool = utils.EnvDefaultString("PARKDESK_BACKUP_TOOL", c.Backup.Tool)
	c.Logging.Level = utils.EnvDefaultString("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = utils.EnvDefaultString("LOG_FORMAT", c.Logging.Format)
	c.Logging.File = utils.EnvDefaultString("LOG_FILE", c.Logging.File)
	c.DataInit.Environment = utils.EnvDefaultString("PARKDESK_ENV", c.DataInit.Environment)
}

// ConfigureLogging applies the logging section to every named logger.
func (c *Config) ConfigureLogging() error {
	utils.ConfigureLogLevel(c.Logging.Level)
	utils.ConfigureLogFormat(c.Logging.Format)
	return utils.ConfigureLogFile(c.Logging.File)
}
