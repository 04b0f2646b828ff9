package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/target/helpdesk-console/config"
	"github.com/target/helpdesk-console/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig

	In  io.Reader
	Out io.Writer
	// IsTerminal reports whether In is an interactive terminal.
	IsTerminal bool
}

// readyTimeout bounds the wait for the startup profile fetch.
const readyTimeout = 30 * time.Second

func main() {
	logger := bootstrap.InitLogger(false)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	if cfg.IsDev {
		logger = bootstrap.InitLogger(true)
	}

	cmdCtx := &commandContext{
		Ctx:        context.Background(),
		Logger:     logger,
		Config:     cfg,
		In:         os.Stdin,
		Out:        os.Stdout,
		IsTerminal: stdinIsTerminal(),
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		if errors.Is(runErr, errHelp) {
			return
		}
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in to the helpdesk backend and store the session tokens",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and remove the stored session tokens",
			run:         runLogout,
		},
		"refresh": {
			name:        "refresh",
			description: "Exchange the stored refresh token for a new access token",
			run:         runRefresh,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the signed-in user and access token expiry",
			run:         runWhoAmI,
		},
		"navigate": {
			name:        "navigate",
			description: "Resolve a console path through the navigation guard",
			run:         runNavigate,
		},
		"serve": {
			name:        "serve",
			description: "Run the console HTTP server",
			run:         runServe,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: helpdesk-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-24s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// openSession builds the session from config and waits for the startup
// profile fetch to finish.
func openSession(cmdCtx *commandContext) (*bootstrap.Session, error) {
	sess, err := bootstrap.BuildSession(cmdCtx.Ctx, bootstrap.SessionConfig{
		Config: &cmdCtx.Config,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return nil, err
	}

	select {
	case <-sess.Store.Ready():
		return sess, nil
	case <-time.After(readyTimeout):
		return nil, errors.Join(errors.New("timed out loading session"), sess.Close())
	case <-cmdCtx.Ctx.Done():
		return nil, errors.Join(cmdCtx.Ctx.Err(), sess.Close())
	}
}

func closeSession(cmdCtx *commandContext, sess *bootstrap.Session) {
	if err := sess.Close(); err != nil {
		cmdCtx.Logger.Warn("close session failed", "error", err)
	}
}
