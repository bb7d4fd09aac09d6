package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/conniptions/internal/client"
	"github.com/robalobadob/conniptions/internal/game"
	"github.com/robalobadob/conniptions/internal/puzzle"
	"github.com/robalobadob/conniptions/internal/tui"
)

func newPlayCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the puzzle in the terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := puzzle.Resolve(cfg.puzzlePath)
			if err != nil {
				return err
			}

			var engineOpts []game.Option
			if cfg.seed != 0 {
				engineOpts = append(engineOpts, game.WithSeed(cfg.seed))
			}

			var opts []tui.Option
			creds, err := loadCredentials(cfg.tokenFile)
			if err != nil {
				log.Warn().Err(err).Msg("ignoring saved credentials")
			}
			if creds.Token != "" {
				server := cfg.server
				if !cmd.Flags().Changed("server") && creds.Server != "" {
					server = creds.Server
				}
				opts = append(opts, tui.WithReporter(client.New(server, client.WithToken(creds.Token))))
			}

			// The terminal belongs to the UI until it exits.
			prev := log.Logger
			log.Logger = zerolog.New(io.Discard)
			defer func() { log.Logger = prev }()

			return tui.Run(cmd.Context(), p, engineOpts, opts...)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalizeFlag)
	fs.Uint64Var(&cfg.seed, "seed", 0, "shuffle seed for a reproducible board; 0 picks one at random (env: CONNIPTIONS_SEED)")

	return cmd
}
