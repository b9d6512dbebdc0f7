package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/qubicboard/internal/buildinfo"
	"github.com/dmitrijs2005/qubicboard/internal/server"
	"github.com/dmitrijs2005/qubicboard/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
