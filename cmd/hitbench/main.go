// Package main compares cache policy hit ratios on a recorded or synthetic access trace.
//
// Usage:
//
//	hitbench -trace photo_big.csv.zst -fractions 0.005,0.01,0.05,0.1,0.25
//	hitbench -synthetic zipf -max-records 1000000 -policies lru,otter,s3fifo
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/codeGROOVE-dev/hitbench/pkg/policy"
	"github.com/codeGROOVE-dev/hitbench/pkg/report"
	"github.com/codeGROOVE-dev/hitbench/pkg/sweep"
	"github.com/codeGROOVE-dev/hitbench/pkg/trace"
	"github.com/codeGROOVE-dev/hitbench/pkg/workload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "hitbench:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// A missing .env is normal; the real environment and flags still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := parseConfig(args, os.Getenv, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	policies := policy.Defaults()
	if len(cfg.Policies) > 0 {
		if policies, err = policy.Select(cfg.Policies); err != nil {
			return err
		}
	}

	s := &sweep.Sweeper{Policies: policies, Workers: cfg.Workers, Logger: log}
	if err := s.Validate(cfg.Fractions); err != nil {
		return err
	}

	start := time.Now()
	tr, source, err := loadTrace(cfg)
	if err != nil {
		return err
	}
	log.Info("trace loaded", "source", source,
		"records", humanize.Comma(int64(tr.Len())),
		"distinct", humanize.Comma(int64(tr.Distinct())),
		"elapsed", time.Since(start).Round(time.Millisecond))

	rep := report.New(stdout, s.Names())
	if err := rep.Header(); err != nil {
		return err
	}
	s.OnRow = rep.Row

	start = time.Now()
	if _, err := s.Sweep(ctx, tr, cfg.Fractions); err != nil {
		return err
	}
	log.Info("sweep complete", "points", len(cfg.Fractions), "policies", len(policies),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func loadTrace(cfg config) (*trace.Trace, string, error) {
	if cfg.Synthetic == "zipf" {
		src := fmt.Sprintf("zipf(keys=%d, theta=%v, seed=%d)", cfg.ZipfKeys, cfg.ZipfTheta, cfg.Seed)
		return workload.Zipf(cfg.MaxRecords, cfg.ZipfKeys, cfg.ZipfTheta, cfg.Seed), src, nil
	}
	tr, err := trace.Load(cfg.TracePath, trace.Options{
		Delimiter:  cfg.Delimiter,
		Column:     cfg.Column,
		MaxRecords: cfg.MaxRecords,
		SkipHeader: cfg.Header,
	})
	if err != nil {
		return nil, "", err
	}
	return tr, cfg.TracePath, nil
}
