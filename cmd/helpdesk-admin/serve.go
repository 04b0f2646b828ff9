package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/target/helpdesk-console/internal/bootstrap"
)

type serveOptions struct {
	Addr string
}

func runServe(cmdCtx *commandContext, args []string) error {
	var opts serveOptions
	fs := newFlagSet("serve")
	fs.StringVar(&opts.Addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg := cmdCtx.Config
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := bootstrap.BuildSession(ctx, bootstrap.SessionConfig{Config: &cfg, Logger: cmdCtx.Logger})
	if err != nil {
		return err
	}
	defer closeSession(cmdCtx, sess)

	srv := bootstrap.NewHTTPServer(bootstrap.HTTPServerConfig{Config: &cfg, Session: sess, Logger: cmdCtx.Logger})
	return bootstrap.RunHTTPServer(ctx, bootstrap.ServeConfig{Server: srv, HTTP: cfg.HTTP, Logger: cmdCtx.Logger})
}
