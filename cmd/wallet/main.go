package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophwallet/internal/app"
	"github.com/dmitrijs2005/gophwallet/internal/buildinfo"
	"github.com/dmitrijs2005/gophwallet/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	a, err := app.NewApp(ctx, cfg, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
