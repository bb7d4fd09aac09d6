package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/conniptions/internal/db"
	"github.com/robalobadob/conniptions/internal/httpserver"
	"github.com/robalobadob/conniptions/internal/puzzle"
	"github.com/robalobadob/conniptions/internal/store"
)

const devSecret = "dev_secret_change_me"

func newServeCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the account, progress and hosted-game HTTP service.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hcfg, err := httpserver.LoadConfigFromEnv()
			if err != nil {
				return err
			}
			if hcfg.JWTSecret == devSecret {
				log.Warn().Msg("JWT_SECRET is unset; using the development secret")
			}

			p, err := puzzle.Resolve(cfg.puzzlePath)
			if err != nil {
				return err
			}

			conn, err := db.OpenAndMigrate(cfg.dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = conn.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := httpserver.New(hcfg, store.NewMemoryStore(), conn, p)
			log.Info().
				Str("addr", cfg.addr).
				Str("db", cfg.dbPath).
				Str("puzzle", p.Key()).
				Str("origin", hcfg.ClientOrigin).
				Msg("starting server")
			if err := srv.Run(ctx, cfg.addr); err != nil {
				return err
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalizeFlag)
	fs.StringVarP(&cfg.addr, "addr", "a", ":5175", "address to listen on (env: CONNIPTIONS_ADDR)")
	fs.StringVar(&cfg.dbPath, "db", "data/conniptions.db", "SQLite database path (env: CONNIPTIONS_DB)")

	return cmd
}
