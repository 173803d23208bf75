package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/fieldsales/internal/buildinfo"
	"github.com/dmitrijs2005/fieldsales/internal/devapi"
	"github.com/dmitrijs2005/fieldsales/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := devapi.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, "json")
	app := devapi.NewApp(cfg, logger)

	if err := app.Run(context.Background()); err != nil {
		os.Exit(1)
	}

}
