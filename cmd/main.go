package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"live-quiz-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("live-quiz exited")
		os.Exit(1)
	}
}
