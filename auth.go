package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/conniptions/internal/client"
)

func newSignupCmd(cfg *Config) *cobra.Command {
	return newCredentialsCmd(cfg, "signup", "Create an account and remember its token.",
		func(ctx context.Context, c *client.Client, username, password string) (client.Session, error) {
			return c.Signup(ctx, username, password)
		})
}

func newLoginCmd(cfg *Config) *cobra.Command {
	return newCredentialsCmd(cfg, "login", "Log in and remember the token.",
		func(ctx context.Context, c *client.Client, username, password string) (client.Session, error) {
			return c.Login(ctx, username, password)
		})
}

type authFunc func(ctx context.Context, c *client.Client, username, password string) (client.Session, error)

func newCredentialsCmd(cfg *Config, use, short string, auth authFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.username == "" || cfg.password == "" {
				if err := promptCredentials(use, &cfg.username, &cfg.password); err != nil {
					return err
				}
			}

			sess, err := auth(cmd.Context(), client.New(cfg.server), cfg.username, cfg.password)
			switch {
			case errors.Is(err, client.ErrUsernameTaken):
				return fmt.Errorf("username %q is taken", cfg.username)
			case errors.Is(err, client.ErrUnauthorized):
				return errors.New("invalid username or password")
			case err != nil:
				return err
			}

			creds := credentials{Server: cfg.server, Username: sess.Username, Token: sess.Token}
			if err := saveCredentials(cfg.tokenFile, creds); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}
			log.Info().Str("user", sess.Username).Str("file", cfg.tokenFile).Msg(use + " ok")
			return nil
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalizeFlag)
	fs.StringVarP(&cfg.username, "username", "u", "", "account name; prompted when empty (env: CONNIPTIONS_USERNAME)")
	fs.StringVar(&cfg.password, "password", "", "account password; prompted when empty (env: CONNIPTIONS_PASSWORD)")

	return cmd
}

func promptCredentials(title string, username, password *string) error {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Username").Value(username).Validate(required("username")),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password).Validate(required("password")),
	).Title(strings.ToUpper(title[:1]) + title[1:])).Run()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func newLogoutCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := removeCredentials(cfg.tokenFile); err != nil {
				return err
			}
			log.Info().Str("file", cfg.tokenFile).Msg("logged out")
			return nil
		},
	}
}

func newWhoamiCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved account and its solved puzzles.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := loadCredentials(cfg.tokenFile)
			if err != nil {
				return err
			}
			if creds.Token == "" {
				return errors.New("not logged in")
			}
			server := creds.Server
			if cmd.Flags().Changed("server") || server == "" {
				server = cfg.server
			}
			c := client.New(server, client.WithToken(creds.Token))
			me, err := c.Me(cmd.Context())
			if errors.Is(err, client.ErrUnauthorized) {
				return errors.New("saved token was rejected; log in again")
			}
			if err != nil {
				return err
			}
			solved, err := c.SolvedPuzzles(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("%s (%s)\nsolved: %d\n", me.Username, me.ID, len(solved))
			for _, id := range solved {
				cmd.Printf("  %s\n", id)
			}
			return nil
		},
	}
}
