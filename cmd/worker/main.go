package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/leadbooking/config"
	"github.com/Domenick1991/leadbooking/internal/email"
	"github.com/Domenick1991/leadbooking/internal/kafka"
	"github.com/Domenick1991/leadbooking/internal/logging"
	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// The worker tails the notifications topic and emails the operator about
// lead and booking events, keeping delivery out of the request path.
func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic("load config: " + err.Error())
	}

	log := logging.NewLogger(cfg.Env)
	defer log.Sync()

	if !cfg.Kafka.Enabled() || cfg.Kafka.NotificationsTopic == "" {
		log.Fatal("worker requires kafka brokers and a notifications topic")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(cfg.Worker.OperatorEmail, log)

	err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		var event kafka.LeadEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Warn("decode event error", zap.Error(err))
			return nil
		}
		return sender.Send(ctx, event)
	})
	if err != nil && ctx.Err() == nil {
		log.Error("consumer stopped", zap.Error(err))
	}
}
