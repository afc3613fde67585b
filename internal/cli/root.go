// Package cli implements the campusid command tree.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"campusid/internal/platform/config"
	"campusid/internal/platform/logger"
)

var version = "dev"

// app carries state resolved by the root command's pre-run hook.
type app struct {
	configFile string
	logLevel   string
	v          *viper.Viper
	cfg        config.Config
	logger     *slog.Logger
	logOutput  io.Writer
}

// NewRootCmd builds a fresh command tree. Each tree owns its own viper
// instance so tests can build several without shared state.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "campusid",
		Short:         "Admin and student registration service",
		Long:          `campusid registers administrators and students, stores their profiles and authenticates them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (YAML); CAMPUSID_* environment variables override it")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().String("profile-backend", "", "profile store backend (memory, redis, postgres)")
	root.PersistentFlags().String("credential-backend", "", "credential store backend (memory, postgres)")
	root.PersistentFlags().String("database-url", "", "Postgres connection string")
	_ = a.v.BindPFlag("profile_backend", root.PersistentFlags().Lookup("profile-backend"))
	_ = a.v.BindPFlag("credential_backend", root.PersistentFlags().Lookup("credential-backend"))
	_ = a.v.BindPFlag("database_url", root.PersistentFlags().Lookup("database-url"))

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newRegisterCmd(a),
		newLoginCmd(a),
		newReconcileCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	out := a.logOutput
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	a.logger = logger.NewWithWriter(out, cfg.LogLevel)
	return nil
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
