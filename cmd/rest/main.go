package main

import (
	"context"
	"log"

	"ai-sitechat-be/internal/bootstrap"
	"ai-sitechat-be/internal/config"
	"ai-sitechat-be/internal/server"
	"ai-sitechat-be/internal/tracer"
	"ai-sitechat-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.MustLoad()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	// Ingest messages are consumed in-process; the gochannel bus lives and
	// dies with the server.
	go func() {
		log.Println("Background: Starting Ingest Consumer...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
