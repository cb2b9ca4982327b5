package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/credgate/internal/client/cli"
	"github.com/joho/godotenv"
)

const usage = `usage: credctl <add|passwd|check> <identifier> [flags]`

func main() {

	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("error reading .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(os.Args[3:])
	if err := app.Run(ctx, os.Args[1], os.Args[2]); err != nil {
		if errors.Is(err, cli.ErrLoginFailed) {
			stop()
			os.Exit(1)
		}
		log.Fatalf("%v", err)
	}

}
