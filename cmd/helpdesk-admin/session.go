package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/target/helpdesk-console/internal/adapters/helpdeskapi"
	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	"golang.org/x/term"
)

type loginOptions struct {
	Username      string
	PasswordStdin bool
}

func parseLoginFlags(args []string) (loginOptions, error) {
	var opts loginOptions
	fs := newFlagSet("login")
	fs.StringVarP(&opts.Username, "username", "u", "", "account username (required)")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "read the password from standard input")
	if err := parseFlags(fs, args); err != nil {
		return opts, err
	}
	opts.Username = strings.TrimSpace(opts.Username)
	if opts.Username == "" {
		return opts, errors.New("--username is required")
	}
	return opts, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(args)
	if err != nil {
		return err
	}
	password, err := readPassword(cmdCtx, opts)
	if err != nil {
		return err
	}

	sess, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeSession(cmdCtx, sess)

	if err := sess.Store.Login(cmdCtx.Ctx, domainauth.Credentials{Username: opts.Username, Password: password}); err != nil {
		return err
	}

	snap := sess.Store.Snapshot()
	if snap.User == nil {
		return writef(cmdCtx.Out, "Signed in as %s\n", opts.Username)
	}
	return writef(cmdCtx.Out, "Signed in as %s (%s)\n", snap.User.Username, snap.User.Role)
}

func readPassword(cmdCtx *commandContext, opts loginOptions) (string, error) {
	if opts.PasswordStdin {
		line, err := bufio.NewReader(cmdCtx.In).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password from stdin: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return "", errors.New("password from stdin is empty")
		}
		return password, nil
	}

	if !cmdCtx.IsTerminal {
		return "", errors.New("stdin is not a terminal; use --password-stdin")
	}
	if err := writef(os.Stderr, "Password: "); err != nil {
		return "", err
	}
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if writeErr := writeln(os.Stderr); writeErr != nil && err == nil {
		err = writeErr
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("password is empty")
	}
	return string(raw), nil
}

func runLogout(cmdCtx *commandContext, args []string) error {
	if err := parseFlags(newFlagSet("logout"), args); err != nil {
		return err
	}

	sess, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeSession(cmdCtx, sess)

	if !sess.Store.IsAuthenticated() {
		return writeln(cmdCtx.Out, "Not signed in")
	}
	sess.Store.Logout(cmdCtx.Ctx)
	return writeln(cmdCtx.Out, "Signed out")
}

func runRefresh(cmdCtx *commandContext, args []string) error {
	if err := parseFlags(newFlagSet("refresh"), args); err != nil {
		return err
	}

	sess, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeSession(cmdCtx, sess)

	token, ok := sess.Store.RefreshAccessToken(cmdCtx.Ctx)
	if !ok {
		return errors.New("token refresh failed; sign in again")
	}
	if err := writeln(cmdCtx.Out, "Access token refreshed"); err != nil {
		return err
	}
	return writeExpiry(cmdCtx, token)
}

func runWhoAmI(cmdCtx *commandContext, args []string) error {
	if err := parseFlags(newFlagSet("whoami"), args); err != nil {
		return err
	}

	sess, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeSession(cmdCtx, sess)

	snap := sess.Store.Snapshot()
	if !snap.IsAuthenticated() {
		if snap.LastError != "" {
			return writef(cmdCtx.Out, "Not signed in (%s)\n", snap.LastError)
		}
		return writeln(cmdCtx.Out, "Not signed in")
	}

	if err := writef(cmdCtx.Out, "State:    %s\n", snap.State()); err != nil {
		return err
	}
	if u := snap.User; u != nil {
		if err := writef(cmdCtx.Out, "User:     %s (%s)\nRole:     %s\n", u.Username, u.FullName, u.Role); err != nil {
			return err
		}
	}
	return writeExpiry(cmdCtx, snap.Tokens.AccessToken)
}

func writeExpiry(cmdCtx *commandContext, accessToken string) error {
	exp, ok := helpdeskapi.AccessTokenExpiry(accessToken)
	if !ok {
		return writeln(cmdCtx.Out, "Expires:  unknown")
	}
	return writef(cmdCtx.Out, "Expires:  %s (in %s)\n", exp.Format(time.RFC3339), time.Until(exp).Round(time.Second))
}
