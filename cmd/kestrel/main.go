package main

import (
	"os"

	log "github.com/kestreldb/kestrel/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Err(err).Msg("terminated with errors")
		os.Exit(1)
	}
}
