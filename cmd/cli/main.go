package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/qubicboard/internal/admin"
	"github.com/dmitrijs2005/qubicboard/internal/buildinfo"
	"github.com/dmitrijs2005/qubicboard/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := admin.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
