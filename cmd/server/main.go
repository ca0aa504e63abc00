package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/example/vitrina/internal/config"
	"github.com/example/vitrina/internal/database"
	"github.com/example/vitrina/internal/events"
	"github.com/example/vitrina/internal/handlers"
	"github.com/example/vitrina/internal/metrics"
	"github.com/example/vitrina/internal/routes"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	defer publisher.Close()

	app := fiber.New(fiber.Config{
		AppName:      "Vitrina Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(m.Middleware())

	orderService := routes.Register(app, routes.NewDependencies(db, cfg, m, publisher))

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Println("Shutting down server")
		if err := app.Shutdown(); err != nil {
			log.Printf("fiber.Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := orderService.Drain(ctx); err != nil {
		log.Printf("post-commit tasks did not finish: %v", err)
	}
}
