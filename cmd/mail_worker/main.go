package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"identity/internal/config"
	"identity/internal/modules/mail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("mail-worker: consuming queue=%s", cfg.MailQueue)
	// Delivery is log-only; no SMTP transport is wired.
	err = mail.Consume(ctx, cfg.RabbitMQURL, cfg.MailQueue, mail.NewLogSender())
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("mail-worker: %v", err)
	}
	log.Println("mail-worker: stopped")
}
