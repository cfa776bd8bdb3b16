package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-foreman/ordersaga/bootstrap"
	"github.com/go-foreman/ordersaga/config"
	"github.com/go-foreman/ordersaga/log"
)

func main() {
	logger := log.DefaultLogger(os.Stdout)

	if err := run(logger); err != nil {
		logger.Logf(log.ErrorLevel, "payment service stopped: %s", err)
		os.Exit(1)
	}
}

func run(logger log.Logger) error {
	conf, err := config.Load(os.Environ())
	if err != nil {
		return err
	}

	logger.SetLevel(conf.Level())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return bootstrap.Main(ctx, conf, logger, bootstrap.PaymentRole)
}
