package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/JonMunkholm/csvbatch/internal/config"
	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/JonMunkholm/csvbatch/internal/limiter"
	"github.com/JonMunkholm/csvbatch/internal/logging"
	"github.com/JonMunkholm/csvbatch/internal/store"
	"github.com/spf13/cobra"
)

// app holds what commands share. Config and store are opened on first use
// so offline commands such as suggest need neither.
type app struct {
	out    io.Writer
	errOut io.Writer

	owner string

	cfg       *config.Config
	loadCfg   func() (*config.Config, error)
	openStore func(context.Context, *config.Config) (core.Store, error)

	store   core.Store
	limiter limiter.Limiter
	service *core.Service
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:       out,
		errOut:    errOut,
		loadCfg:   config.Load,
		openStore: store.Open,
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "csvctl",
		Short:         "Manage imported CSV batches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	cmd.PersistentFlags().StringVar(&a.owner, "owner", "", "Owner identity the command acts as")

	cmd.AddCommand(
		newImportCmd(a),
		newFilesCmd(a),
		newRowsCmd(a),
		newExportCmd(a),
		newDeleteCmd(a),
		newSuggestCmd(a),
		newTokenCmd(a),
	)
	return cmd
}

// config loads and validates configuration once, then sets up logging on stderr.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := a.loadCfg()
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, a.errOut)
	a.cfg = cfg
	return cfg, nil
}

// open returns the service over the configured store.
func (a *app) open(ctx context.Context) (*core.Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	if a.store == nil {
		st, err := a.openStore(ctx, cfg)
		if err != nil {
			return nil, withCode(exitStorage, err)
		}
		a.store = st
	}

	artifacts, err := core.NewDiskArtifacts(cfg.Upload.Dir)
	if err != nil {
		return nil, err
	}

	lim, err := limiter.New(ctx, cfg.Upload, cfg.Redis)
	if err != nil {
		return nil, withCode(exitStorage, err)
	}
	a.limiter = lim

	svc, err := core.NewService(a.store, core.Options{
		Artifacts:     artifacts,
		Limiter:       lim,
		ImportTimeout: cfg.Upload.Timeout,
	})
	if err != nil {
		return nil, err
	}
	a.service = svc
	return svc, nil
}

func (a *app) close() {
	if a.limiter != nil {
		a.limiter.Close()
		a.limiter = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("close store", "error", err)
		}
		a.store = nil
	}
}
