// Command visitplanner groups proposed procedures into visits offline and
// prints scheduling advice for an existing visit sequence.
package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/visitplanner/internal/infrastructure/observability"
)

func main() {
	observability.InitLogger("visitplanner-cli", os.Getenv("APP_ENV"))

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
