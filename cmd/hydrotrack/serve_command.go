package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xmhha/hydrotrack/pkg/api"
)

// serveCommand runs the HTTP API.
type serveCommand struct {
	addr       string
	withIngest bool
	inboxes    stringList
	noCache    bool
	logLevel   string
}

func parseServeArgs(args []string) (*serveCommand, error) {
	cmd := &serveCommand{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&cmd.addr, "addr", "", "listen address (default from config)")
	fs.BoolVar(&cmd.withIngest, "ingest", false, "also import records dropped into inbox directories")
	fs.Var(&cmd.inboxes, "inbox", "inbox directory (repeatable, default from config)")
	fs.BoolVar(&cmd.noCache, "no-cache", false, "disable the result cache")
	fs.StringVar(&cmd.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if len(cmd.inboxes) > 0 && !cmd.withIngest {
		return nil, fmt.Errorf("-inbox requires -ingest")
	}
	return cmd, nil
}

func runServeCommand(configPath string, args []string, out io.Writer) error {
	cmd, err := parseServeArgs(args)
	if err != nil {
		return err
	}

	a, err := newApp(configPath, out, appOptions{
		withCache:   !cmd.noCache,
		withMetrics: true,
		logLevel:    cmd.logLevel,
	})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.withIngest {
		p, _, _, err := a.newPipeline(cmd.inboxes)
		if err != nil {
			return err
		}
		defer p.Close()

		go func() {
			for u := range p.Updates() {
				a.log.Debug("inbox update", "path", u.Path, "users", u.Users)
			}
		}()

		if err := p.Start(ctx); err != nil {
			return fmt.Errorf("failed to start ingest: %w", err)
		}
	}

	addr := cmd.addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	srv := api.New(api.Config{
		Addr:            addr,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		IdleTimeout:     a.cfg.Server.IdleTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	}, a.service, a.metrics, a.log)

	fmt.Fprintf(out, "hydrotrack %s listening on %s\n", version, addr)
	return srv.Run(ctx)
}
