package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/go-foreman/ordersaga"
	"github.com/go-foreman/ordersaga/config"
	"github.com/go-foreman/ordersaga/inventory"
	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/order"
	"github.com/go-foreman/ordersaga/order/api"
	"github.com/go-foreman/ordersaga/payment"
	"github.com/go-foreman/ordersaga/pubsub/inbox"
	"github.com/go-foreman/ordersaga/pubsub/subscriber"
	"github.com/go-foreman/ordersaga/pubsub/transport"
	"github.com/go-foreman/ordersaga/pubsub/transport/amqp"
	"github.com/go-foreman/ordersaga/saga"
	"github.com/go-foreman/ordersaga/saga/orchestrator"
	"github.com/go-foreman/ordersaga/validation"
)

// Role is a part of the saga a process runs
type Role string

const (
	OrchestratorRole Role = "orchestrator"
	OrderRole        Role = "order"
	ValidationRole   Role = "validation"
	InventoryRole    Role = "inventory"
	PaymentRole      Role = "payment"
)

var AllRoles = []Role{OrchestratorRole, OrderRole, ValidationRole, InventoryRole, PaymentRole}

// Service is a process running one or more roles over a shared message bus
type Service struct {
	conf      *config.Config
	bus       *ordersaga.MessageBus
	transport transport.Transport
	storage   *Storage
	initiator *order.Initiator
	server    *http.Server
	closers   []func() error
	logger    log.Logger
}

// New connects to rabbitmq and builds a service of the given roles
func New(ctx context.Context, conf *config.Config, logger log.Logger, roles ...Role) (*Service, error) {
	return NewWithTransport(ctx, conf, logger, amqp.NewTransport(conf.AmqpURL, logger), AmqpTopology(conf), roles...)
}

func NewWithTransport(ctx context.Context, conf *config.Config, logger log.Logger, t transport.Transport, topology Topology, roles ...Role) (*Service, error) {
	if len(roles) == 0 {
		return nil, errors.New("no roles to run")
	}

	if err := t.Connect(ctx); err != nil {
		return nil, errors.Wrap(err, "connecting transport")
	}

	channels := saga.DefaultPipeline.Channels()

	if err := topology.Declare(ctx, t, conf.Exchange, channels...); err != nil {
		return nil, errors.Wrap(err, "declaring topology")
	}

	storage, err := OpenStorage(ctx, conf, logger, roles...)
	if err != nil {
		return nil, errors.Wrap(err, "opening storage")
	}

	s := &Service{conf: conf, transport: t, storage: storage, logger: logger}
	s.closers = append(s.closers, storage.Close)

	configOpts := []ordersaga.ConfigOption{
		ordersaga.WithRouter(NewRouter(t, conf.Exchange, channels...)),
		ordersaga.WithInbox(s.inbox()),
		ordersaga.WithComponents(s.components(roles)...),
	}

	subscriberOpts := []subscriber.Opt{subscriber.WithConfig(conf.SubscriberConfig())}
	if len(topology.ConsumeOpts) > 0 {
		subscriberOpts = append(subscriberOpts, subscriber.WithConsumeOpts(topology.ConsumeOpts...))
	}

	bus, err := ordersaga.NewMessageBus(logger, ordersaga.DefaultWithTransport(t, subscriberOpts...), configOpts...)
	if err != nil {
		s.close()
		return nil, errors.Wrap(err, "creating message bus")
	}

	s.bus = bus

	if storage.Order != nil {
		s.initiator = order.NewInitiator(storage.Order, bus, logger)
		s.server = &http.Server{
			Addr:         conf.HTTPAddr,
			Handler:      api.NewHandler(logger, s.initiator, order.NewEventQuery(storage.Order)).Routes(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
	}

	return s, nil
}

func (s *Service) inbox() inbox.Inbox {
	if s.conf.RedisAddr == "" {
		return inbox.NewMemoryInbox(s.conf.InboxTTL)
	}

	client := redis.NewClient(&redis.Options{Addr: s.conf.RedisAddr})
	s.closers = append(s.closers, client.Close)

	return inbox.NewRedisInbox(client, s.conf.ServiceName, s.conf.InboxTTL)
}

func (s *Service) components(roles []Role) []ordersaga.Component {
	components := make([]ordersaga.Component, 0, len(roles))

	for _, role := range roles {
		switch role {
		case OrchestratorRole:
			components = append(components, orchestrator.NewComponent(saga.DefaultPipeline))
		case OrderRole:
			components = append(components, order.NewComponent(s.storage.Order))
		case ValidationRole:
			components = append(components, validation.NewComponent(s.storage.Validation, s.storage.Catalog, s.storage.Mutex))
		case InventoryRole:
			components = append(components, inventory.NewComponent(s.storage.InventoryLedger, s.storage.Inventory, s.storage.Mutex))
		case PaymentRole:
			components = append(components, payment.NewComponent(s.storage.Payment, s.storage.Mutex))
		}
	}

	return components
}

func (s *Service) Bus() *ordersaga.MessageBus {
	return s.bus
}

func (s *Service) Storage() *Storage {
	return s.storage
}

// Initiator is nil unless the service runs the order role
func (s *Service) Initiator() *order.Initiator {
	return s.initiator
}

// Run serves http when the order role is run and consumes subscribed channels until ctx is canceled
func (s *Service) Run(ctx context.Context) error {
	if s.server != nil {
		go func() {
			s.logger.Logf(log.InfoLevel, "http listening on %s", s.server.Addr)
			if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Logf(log.ErrorLevel, "http server error: %s", err)
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.conf.GracefulShutdownTimeout)
			defer cancel()

			if err := s.server.Shutdown(shutdownCtx); err != nil {
				s.logger.Logf(log.ErrorLevel, "shutting down http server: %s", err)
			}
		}()
	}

	return s.bus.Run(ctx)
}

// Close releases database and redis connections
func (s *Service) Close() error {
	return s.close()
}

func (s *Service) close() error {
	var firstErr error

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Logf(log.ErrorLevel, "closing service: %s", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.closers = nil

	return firstErr
}

// Main runs roles until ctx is canceled
func Main(ctx context.Context, conf *config.Config, logger log.Logger, roles ...Role) error {
	s, err := New(ctx, conf, logger, roles...)
	if err != nil {
		return err
	}

	defer s.Close()

	return s.Run(ctx)
}
