// Command mailer drains the notification queue and delivers each email over
// SMTP.  It runs next to the API server when NOTIFY_DRIVER=amqp.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/query-system/internal/config"
	"github.com/iliyamo/query-system/internal/logging"
	"github.com/iliyamo/query-system/internal/notify"
	"github.com/iliyamo/query-system/internal/queue"
)

func main() {
	_ = godotenv.Load()
	log := logging.New(os.Stdout, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL")).With("service", "mailer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	smtpCfg, err := config.LoadSMTP()
	if err != nil {
		log.Error(ctx, "config", "err", err)
		os.Exit(1)
	}

	queueName := os.Getenv("NOTIFY_QUEUE")
	if queueName == "" {
		queueName = "notifications.email"
	}
	prefetch, _ := strconv.Atoi(os.Getenv("MAILER_PREFETCH"))

	c := &queue.Consumer{
		URL:      config.AMQPURL(),
		Queue:    queueName,
		Prefetch: prefetch,
		Deliver:  notify.NewSMTPMailer(smtpCfg),
		Log:      log,
	}
	log.Info(ctx, "mailer started", "queue", queueName)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(ctx, "mailer stopped", "err", err)
		os.Exit(1)
	}
}
