package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/messdesk/messdesk/internal/app"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := app.Run(*configPath); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
