// Command allinone runs the orchestrator, the order service and every participant in one process
// over the in-memory transport.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-foreman/ordersaga/bootstrap"
	"github.com/go-foreman/ordersaga/config"
	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/pubsub/transport"
)

var defaultProducts = []string{"COMIC_BOOKS", "BOOKS", "MOVIES", "MUSIC"}

func main() {
	logger := log.DefaultLogger(os.Stdout)

	if err := run(logger); err != nil {
		logger.Logf(log.ErrorLevel, "allinone stopped: %s", err)
		os.Exit(1)
	}
}

func run(logger log.Logger) error {
	conf, err := config.Load(os.Environ())
	if err != nil {
		return err
	}

	logger.SetLevel(conf.Level())

	if len(conf.SeedProducts) == 0 {
		conf.SeedProducts = defaultProducts
	}
	if conf.SeedAvailable == 0 {
		conf.SeedAvailable = 10
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := bootstrap.NewWithTransport(ctx, conf, logger, transport.NewMemoryTransport(), bootstrap.MemoryTopology, bootstrap.AllRoles...)
	if err != nil {
		return err
	}

	defer s.Close()

	return s.Run(ctx)
}
