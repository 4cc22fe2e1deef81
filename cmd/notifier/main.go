package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"masterbook/pkg/config"
	"masterbook/pkg/kafka"
	kafka_config "masterbook/pkg/kafka/config"
	kafka_middleware "masterbook/pkg/kafka/middleware"
	"masterbook/pkg/notification"
)

const ServiceName = "notifier"

const metricsInterval = time.Minute

// The notifier drains the notices topic and delivers each one by email.
// Messages that keep failing end up on the dead letter topic.
func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	if cfg.SMTPHost == "" {
		cfg.Log.Fatal("SMTP host is required by the notifier")
	}
	sender := notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.NotificationsTopic,
		cfg.NotifierGroupID,
		cfg.NotificationsDLQ,
		notification.NewDeliveryHandler(sender, cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reportMetrics(ctx, cfg, consumer)

	cfg.Log.Info("Starting notifier", "topic", cfg.NotificationsTopic, "group_id", cfg.NotifierGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	kafka_middleware.GetMetrics().LogSummary(cfg.Log)
	cfg.Log.Info("Notifier stopped")
}

func reportMetrics(ctx context.Context, cfg *config.Config, consumer *kafka.Consumer) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			kafka_middleware.GetMetrics().LogSummary(cfg.Log)
			cfg.Log.Info("Consumer lag", "lag", consumer.Lag())
		}
	}
}
