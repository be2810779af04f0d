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

// Package parkdesk is a record management console for a relational parking
// database. A Console owns the connection and the shared components; every
// login gets its own Session holding the role and the page cursor.
package parkdesk

import (
	"context"
	"fmt"

	"github.com/tomoncle/parkdesk/access"
	"github.com/tomoncle/parkdesk/backup"
	"github.com/tomoncle/parkdesk/catalog"
	"github.com/tomoncle/parkdesk/config"
	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/editor"
	"github.com/tomoncle/parkdesk/pager"
	"github.com/tomoncle/parkdesk/report"
	"github.com/tomoncle/parkdesk/types"
	"github.com/uptrace/bun"
)

type Console struct {
	cfg      *config.Config
	factory  *database.BaseDatabaseFactory
	gateway  *database.Gateway
	resolver *catalog.Resolver
	policies *catalog.KeyPolicies
	reports  report.Registry
	auth     *access.Authenticator
	logger   database.Logger
}

// New returns a console for cfg. Nothing is connected until Open.
func New(cfg *config.Config) *Console {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := database.NewLogger("PARKDESK")
	return &Console{
		cfg:      cfg,
		factory:  database.NewDatabaseFactory(database.NewLogger("DATABASE")),
		policies: catalog.NewKeyPolicies(cfg.Console.ManualKeyTables...),
		reports:  report.Builtin(),
		logger:   logger,
	}
}

// Open connects to the configured database and, when enabled, runs the
// seed SQL files.
func (c *Console) Open(ctx context.Context) error {
	manager, err := c.factory.CreateFromConfig(&c.cfg.Database)
	if err != nil {
		return types.Wrap(types.ConnectionUnavailable, "configure", err)
	}
	if err := c.factory.Open(ctx); err != nil {
		return err
	}
	c.Attach(manager.GetDB())
	c.logger.Info("Connected", "type", c.cfg.Database.Type, "host", c.cfg.Database.Host, "database", c.cfg.Database.DBName)

	if c.cfg.DataInit.AutoInitOnStartup {
		if _, err := c.InitData(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Attach builds the components on an already opened db.
func (c *Console) Attach(db *bun.DB) {
	c.gateway = database.NewGateway(db, database.NewLogger("GATEWAY"))
	c.resolver = catalog.NewResolver(c.gateway, c.cfg.Database.SchemaOrDefault(), database.NewLogger("CATALOG"))
	c.auth = access.NewAuthenticator(c.gateway, database.NewLogger("ACCESS"))
}

func (c *Console) Config() *config.Config { return c.cfg }

func (c *Console) Reports() report.Registry { return c.reports }

// Login checks the credentials and opens a session with the stored role.
func (c *Console) Login(ctx context.Context, login, password string) (*Session, error) {
	if err := c.requireOpen(); err != nil {
		return nil, err
	}
	role, err := c.auth.Authenticate(ctx, login, password)
	if err != nil {
		return nil, err
	}
	return c.NewSession(login, role), nil
}

// NewSession opens a session for a login whose role is already known.
func (c *Console) NewSession(login string, role types.Role) *Session {
	logger := database.NewLogger("SESSION")
	return &Session{
		login:     login,
		role:      role,
		console:   c,
		engine:    pager.NewEngine(c.gateway, c.resolver, c.cfg.Console.PageSize, database.NewLogger("PAGER")),
		committer: editor.NewCommitter(c.gateway, database.NewLogger("EDITOR")),
		runner:    report.NewRunner(c.gateway, c.reports, database.NewLogger("REPORT")),
		dumper:    backup.NewDumper(&c.cfg.Database, c.cfg.Backup.Tool, database.NewLogger("BACKUP")),
		logger:    logger,
	}
}

// InitData runs the seed SQL files, which create the users table.
func (c *Console) InitData(ctx context.Context) ([]database.ExecutionResult, error) {
	manager := c.factory.GetManager()
	if manager == nil {
		return nil, types.Errorf(types.ConnectionUnavailable, "init data", "database is not open")
	}
	results, err := manager.InitData(ctx, &c.cfg.DataInit)
	if err != nil {
		return results, database.WrapError(types.StatementFailed, "init data", err)
	}
	c.logger.Info("Seed files executed", "files", len(results))
	return results, nil
}

// Status reports the health and pool statistics of the connection.
func (c *Console) Status(ctx context.Context) (*database.HealthStatus, *database.DBStats) {
	return c.factory.GetHealthStatus(ctx), c.factory.GetStats()
}

func (c *Console) Close() error {
	if err := c.factory.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func (c *Console) requireOpen() error {
	if c.gateway == nil {
		return types.Errorf(types.ConnectionUnavailable, "login", "database is not open")
	}
	return nil
}
