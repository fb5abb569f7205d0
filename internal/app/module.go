package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gatepass/internal/access"
	"github.com/shandysiswandi/gatepass/internal/admin"
	"github.com/shandysiswandi/gatepass/internal/terminal"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.admin.enabled") {
		if err := admin.New(admin.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Messaging:  a.messaging,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			Bcrypt:     a.bcrypt,
			JWT:        a.jwt,
			UID:        a.uid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module admin", "error", err)
			os.Exit(1)
		}
	}

	if !a.config.GetBool("modules.access.enabled") {
		return
	}

	accessUC, err := access.New(access.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		Messaging:  a.messaging,
		Storage:    a.storage,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		CredID:     a.credID,
		Clock:      a.clock,
		Totp:       a.totp,
		Validator:  a.validator,
	})
	if err != nil {
		slog.Error("failed to init module access", "error", err)
		os.Exit(1)
	}

	// terminals verify through the access usecase in process
	if a.config.GetBool("modules.terminal.enabled") {
		terminals, err := terminal.New(terminal.Dependency{
			CacheConn:  a.cacheConn,
			Access:     accessUC,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			Clock:      a.clock,
			Scheduler:  a.scheduler,
			Validator:  a.validator,
		})
		if err != nil {
			slog.Error("failed to init module terminal", "error", err)
			os.Exit(1)
		}
		a.terminals = terminals
	}
}
