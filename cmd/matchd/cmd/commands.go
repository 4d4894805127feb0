package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cometbft/cometbft/abci/server"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/spf13/cobra"

	"github.com/ocentra/ocentra-games/internal/app"
	"github.com/ocentra/ocentra-games/internal/codec"
	"github.com/ocentra/ocentra-games/internal/config"
	"github.com/ocentra/ocentra-games/internal/state"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default app.toml under <home>/config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, wrote, err := config.WriteDefault(homeFlag(cmd))
			if err != nil {
				return err
			}
			if !wrote {
				fmt.Fprintf(cmd.OutOrStdout(), "config already exists at %s\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Serve the match application over ABCI until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(homeFlag(cmd))
			if err != nil {
				return err
			}

			logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
			logger, err = cmtflags.ParseLogLevel(cfg.LogLevel, logger, config.DefaultLogLevel)
			if err != nil {
				return fmt.Errorf("parse log level: %w", err)
			}

			a, err := app.New(cfg.DBPath(), logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			defer func() { _ = a.Close() }()

			srv, err := server.NewServer(cfg.Addr, cfg.Transport, a)
			if err != nil {
				return fmt.Errorf("create abci server: %w", err)
			}
			srv.SetLogger(logger.With("module", "abci-server"))
			if err := srv.Start(); err != nil {
				return fmt.Errorf("abci server start: %w", err)
			}
			defer func() { _ = srv.Stop() }()
			logger.Info("abci server listening", "addr", cfg.Addr, "transport", cfg.Transport)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			logger.Info("shutting down", "signal", sig.String())
			return nil
		},
	}
}

func genesisCmd() *cobra.Command {
	var authority string
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Print an app_state document with default params",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if authority != "" {
				if err := codec.ValidateIdentity("authority", authority); err != nil {
					return err
				}
			}
			params, err := json.Marshal(state.DefaultParams())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(app.GenesisState{
				Authority: authority,
				Accounts:  map[string][]byte{},
				Params:    params,
			}, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "registry authority to install at genesis")
	return cmd
}

func mkidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkid",
		Short: "Print a fresh match id",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), codec.NewMatchID())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the matchd version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
