package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/fieldsales/internal/buildinfo"
	"github.com/dmitrijs2005/fieldsales/internal/client/cli"
	"github.com/dmitrijs2005/fieldsales/internal/client/config"
	"github.com/dmitrijs2005/fieldsales/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	initSignalHandler(cancel, app)

	if err := app.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}

// initSignalHandler stops the app on SIGINT/SIGTERM. The prompt blocks on
// stdin, so the process exits instead of waiting for the next line.
func initSignalHandler(cancel context.CancelFunc, app *cli.App) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		cancel()
		app.Close()
		os.Exit(130)
	}()
}
