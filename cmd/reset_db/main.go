package main

import (
	"context"

	"homeservices/config"
	"homeservices/pkg/logger"
	"homeservices/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	pg, err := postgres.New(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}
	defer pg.Close()

	// bookings keep denormalized copies, so every table goes together
	_, err = pg.GetPool().Exec(context.Background(), "TRUNCATE TABLE bookings, services, users CASCADE")
	if err != nil {
		log.Error("failed to truncate tables", logger.Error(err))
		return
	}
	log.Info("truncated bookings, services and users")
}
