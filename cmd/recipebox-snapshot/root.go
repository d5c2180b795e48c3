package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"recipebox/internal/blob"
	"recipebox/internal/core"
	"recipebox/internal/snapshot"
)

// app carries state shared by subcommands once the root pre-run resolved it.
type app struct {
	v          *viper.Viper
	open       blobOpener
	configFile string

	logger   *slog.Logger
	blobs    blob.Store
	store    *core.MemoryStore
	exporter *snapshot.Exporter
}

func newRootCmd(open blobOpener) *cobra.Command {
	a := &app{v: newViper(), open: open}
	root := &cobra.Command{
		Use:           "recipebox-snapshot",
		Short:         "Inspect archived recipebox snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == versionCmdName {
				return nil
			}
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (YAML)")
	flags.String("driver", "", "blob driver: fs, s3 or memory")
	flags.String("fs-root", "", "snapshot directory for the fs driver")
	flags.String("bucket", "", "bucket for the s3 driver")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	_ = a.v.BindPFlag(cfgKeyDriver, flags.Lookup("driver"))
	_ = a.v.BindPFlag(cfgKeyFSRoot, flags.Lookup("fs-root"))
	_ = a.v.BindPFlag(cfgKeyS3Bucket, flags.Lookup("bucket"))
	_ = a.v.BindPFlag(cfgKeyLogLevel, flags.Lookup("log-level"))

	root.AddCommand(newListCmd(a), newCheckCmd(a), newURLCmd(a), newVersionCmd())
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.v, a.configFile)
	if err != nil {
		return err
	}
	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.blobs, err = a.open(cmd.Context(), cfg.Blob)
	if err != nil {
		return err
	}
	a.logger.Debug("blob store opened", "driver", a.blobs.Driver())
	a.store = core.NewMemoryStore(core.NewDefaultRulesEngine())
	a.exporter = snapshot.NewExporter(a.store, a.blobs, snapshot.WithLogger(a.logger))
	return nil
}
