package main

import (
	"log"

	"github.com/antonpme/CV-Optimizer/internal/bootstrap"
	"github.com/antonpme/CV-Optimizer/internal/shared/config"
	"github.com/antonpme/CV-Optimizer/internal/shared/server"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	telemetry.Info("api.start", map[string]any{"addr": addr, "env": cfg.Env})

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
