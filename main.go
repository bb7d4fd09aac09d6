package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const releaseVersion = "0.1.0"

func main() {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := newRootCmd(cfg).Execute(); err != nil {
		log.Error().Err(err).Msg("conniptions")
		os.Exit(1)
	}
}
