package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	logLevel   string
	puzzlePath string
	server     string
	tokenFile  string

	// serve
	addr   string
	dbPath string

	// play
	seed uint64

	// signup / login
	username string
	password string
}

func (c *Config) validate() error {
	if c.server == "" {
		return errors.New("--server must not be empty")
	}
	if _, err := zerolog.ParseLevel(c.logLevel); err != nil {
		return fmt.Errorf("invalid --log-level %q", c.logLevel)
	}
	return nil
}

func newRootCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CONNIPTIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "conniptions",
		Short:   "Group sixteen words into four hidden categories.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bindEnv(v, cmd.Flags())
			if err := cfg.validate(); err != nil {
				return err
			}
			setupLogging(cfg.logLevel)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.SetNormalizeFunc(normalizeFlag)
	pf.StringVar(&cfg.logLevel, "log-level", "info", "zerolog level: debug, info, warn, error (env: CONNIPTIONS_LOG_LEVEL)")
	pf.StringVar(&cfg.puzzlePath, "puzzle", "", "path to a puzzle YAML file; empty uses the built-in puzzle (env: CONNIPTIONS_PUZZLE)")
	pf.StringVar(&cfg.server, "server", "http://localhost:5175", "progress service base URL (env: CONNIPTIONS_SERVER)")
	pf.StringVar(&cfg.tokenFile, "token-file", defaultTokenFile(), "where signup/login store credentials (env: CONNIPTIONS_TOKEN_FILE)")

	cmd.AddCommand(
		newServeCmd(cfg),
		newPlayCmd(cfg),
		newSignupCmd(cfg),
		newLoginCmd(cfg),
		newLogoutCmd(cfg),
		newWhoamiCmd(cfg),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("conniptions v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// bindEnv fills every flag the user did not pass from its CONNIPTIONS_* variable.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func setupLogging(level string) {
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}
