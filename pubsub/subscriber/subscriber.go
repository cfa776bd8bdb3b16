package subscriber

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/pubsub/transport"
)

// Subscriber starts listening for queues and processes messages
type Subscriber interface {
	// Run listens queues for packages and processes them. Gracefully shuts down either on os.Signal or ctx.Done() or Stop()
	Run(ctx context.Context, queues ...transport.Queue) error
	// Stop gracefully stops subscriber and calls transport.Disconnect().
	Stop(ctx context.Context) error
}

// Config allows to configure subscriber workflow
type Config struct {
	// WorkersCount specifies a number workers that process packages
	WorkersCount uint
	// PackageProcessingMaxTime amount of time for a package to be processed
	PackageProcessingMaxTime time.Duration
	// GracefulShutdownTimeout amount of time for graceful shutdown
	GracefulShutdownTimeout time.Duration
}

var DefaultConfig = Config{
	WorkersCount:             10,
	PackageProcessingMaxTime: time.Second * 60,
	GracefulShutdownTimeout:  time.Second * 61,
}

type subscriberOpts struct {
	config      *Config
	consumeOpts []transport.ConsumeOpt
}

type Opt func(o *subscriberOpts)

func WithConfig(c *Config) Opt {
	return func(o *subscriberOpts) {
		o.config = c
	}
}

// WithConsumeOpts passes transport specific options to Consume, e.g. amqp prefetch count
func WithConsumeOpts(opts ...transport.ConsumeOpt) Opt {
	return func(o *subscriberOpts) {
		o.consumeOpts = append(o.consumeOpts, opts...)
	}
}

// NewSubscriber creates default subscriber implementation
func NewSubscriber(transport transport.Transport, processor Processor, logger log.Logger, opts ...Opt) Subscriber {
	sOpts := &subscriberOpts{}

	for _, o := range opts {
		o(sOpts)
	}

	config := &DefaultConfig
	if sOpts.config != nil {
		config = sOpts.config
	}

	return &subscriber{
		transport:   transport,
		logger:      logger,
		processor:   processor,
		workerPool:  newWorkerPool(config.WorkersCount),
		config:      config,
		consumeOpts: sOpts.consumeOpts,
	}
}

type subscriber struct {
	transport   transport.Transport
	logger      log.Logger
	processor   Processor
	workerPool  *workerPool
	config      *Config
	consumeOpts []transport.ConsumeOpt
}

func (s *subscriber) Run(ctx context.Context, queues ...transport.Queue) error {
	names := make([]string, len(queues))
	for i, q := range queues {
		names[i] = q.Name()
	}
	s.logger.Logf(log.InfoLevel, "started subscriber. Listening to queues: %v", names)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	consumerCtx, cancelConsumerCtx := context.WithCancel(ctx)
	defer cancelConsumerCtx()

	consumedPkgs, err := s.transport.Consume(consumerCtx, queues, s.consumeOpts...)
	if err != nil {
		return errors.WithStack(err)
	}

	s.workerPool.start()
	defer s.workerPool.close()

	// packages keep being processed after ctx is canceled, graceful shutdown waits for them
	tasksCtx := context.WithoutCancel(ctx)

	for {
		select {
		case incomingPkg, open := <-consumedPkgs:
			if !open {
				s.logger.Log(log.InfoLevel, "consumed packages channel is closed")
				return s.gracefulStop()
			}

			if !s.workerPool.submit(ctx, func() { s.processPackage(tasksCtx, incomingPkg) }) {
				s.requeue(incomingPkg)
				s.logger.Log(log.InfoLevel, "subscriber's context was canceled")
				return s.gracefulStop()
			}
		case <-ctx.Done():
			s.logger.Log(log.InfoLevel, "subscriber's context was canceled")
			return s.gracefulStop()
		case <-signalChan:
			s.logger.Log(log.InfoLevel, "received kill signal")
			return s.gracefulStop()
		}
	}
}

// requeue gives back a package no worker took before shutdown
func (s *subscriber) requeue(inPkg transport.IncomingPkg) {
	if err := inPkg.Nack(transport.WithRequeue()); err != nil {
		s.logger.Logf(log.ErrorLevel, "error requeueing package %s on shutdown. %s", inPkg.UID(), err)
	}
}

func (s *subscriber) gracefulStop() error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.GracefulShutdownTimeout)
	defer shutdownCancel()

	if err := s.Stop(shutdownCtx); err != nil {
		s.logger.Logf(log.ErrorLevel, "error stopping subscriber gracefully %s", err)
		return errors.Wrapf(err, "stopping subscriber gracefully")
	}

	return nil
}

func (s *subscriber) processPackage(ctx context.Context, inPkg transport.IncomingPkg) {
	processorCtx, processorCancel := context.WithTimeout(ctx, s.config.PackageProcessingMaxTime)
	defer processorCancel()

	s.logger.Logf(log.DebugLevel, "started processing package id %s", inPkg.UID())

	if err := s.processor.Process(processorCtx, inPkg); err != nil {
		s.logger.Logf(log.ErrorLevel, "error happened while processing pkg %s from %s. %s", inPkg.UID(), inPkg.Origin(), err)

		if redeliverable(err) {
			if err := inPkg.Nack(transport.WithRequeue()); err != nil {
				s.logger.Logf(log.ErrorLevel, "error nacking package %s. %s", inPkg.UID(), err)
			}
			return
		}

		if err := inPkg.Reject(); err != nil {
			s.logger.Logf(log.ErrorLevel, "error rejecting package %s. %s", inPkg.UID(), err)
		}

		return
	}

	if err := inPkg.Ack(); err != nil {
		s.logger.Logf(log.ErrorLevel, "error acking package %s. %s", inPkg.UID(), err)
		return
	}

	s.logger.Logf(log.DebugLevel, "acked package id %s", inPkg.UID())
}

func (s *subscriber) Stop(ctx context.Context) error {
	if s.workerPool.busyWorkers() > 0 {
		s.logger.Logf(log.InfoLevel, "graceful shutdown. Waiting subscriber for finishing %d tasks in progress", s.workerPool.busyWorkers())
	}

	waitingTicker := time.NewTicker(time.Millisecond * 100)
	defer waitingTicker.Stop()

	for s.workerPool.busyWorkers() > 0 {
		select {
		case <-ctx.Done():
			s.logger.Log(log.WarnLevel, "stopped subscriber because of canceled parent ctx")
			return nil
		case <-waitingTicker.C:
		}
	}

	s.logger.Log(log.InfoLevel, "all tasks are finished. Disconnecting from transport.")

	return s.transport.Disconnect(ctx)
}

type processPkg struct {
	ctx        context.Context
	pkg        transport.IncomingPkg
	subscriber *subscriber
}

func newTaskProcessPkg(ctx context.Context, pkg transport.IncomingPkg, subscriber *subscriber) *processPkg {
	return &processPkg{
		ctx:        ctx,
		pkg:        pkg,
		subscriber: subscriber,
	}
}

func (p *processPkg) do() {
	p.subscriber.processPackage(p.ctx, p.pkg)
}
