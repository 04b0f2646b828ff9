package main

import (
	"errors"
	"sort"

	httpx "github.com/target/helpdesk-console/internal/http"
)

func runNavigate(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("navigate")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: helpdesk-admin navigate <path>")
	}

	sess, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeSession(cmdCtx, sess)

	guard := sess.Guard
	table := httpx.NewRouteTable(httpx.ConsoleRoutes(guard.LoginPath(), guard.LandingPath()), guard.LandingPath())
	result := table.Navigate(fs.Arg(0), guard, sess.Store.Snapshot())

	for _, loc := range result.Redirects {
		if err := writef(cmdCtx.Out, "redirect -> %s\n", loc); err != nil {
			return err
		}
	}

	res := result.Resolution
	if err := writef(cmdCtx.Out, "view: %s %s\n", res.Route.Name, res.FullPath); err != nil {
		return err
	}
	keys := make([]string, 0, len(res.Params))
	for k := range res.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writef(cmdCtx.Out, "  %s=%s\n", k, res.Params[k]); err != nil {
			return err
		}
	}
	return nil
}
