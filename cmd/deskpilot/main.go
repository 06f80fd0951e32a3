// Package main starts the deskpilot client.
package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"
)

// main is the entrypoint for the deskpilot client.
func main() {
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	staticDir := flag.String("static", "", "Serve UI assets from this directory instead of the embedded copy")
	flag.Parse()

	if err := run(*debug, *staticDir); err != nil {
		log.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}
