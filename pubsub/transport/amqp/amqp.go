package amqp

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/go-foreman/ordersaga/log"
	"github.com/go-foreman/ordersaga/pubsub/transport"
)

// Dialer opens a connection to a broker
type Dialer func(url string) (AmqpConnection, error)

// NewTransport creates amqp transport which dials with reconnecting connection
func NewTransport(url string, logger log.Logger) transport.Transport {
	return NewTransportWithDialer(url, func(url string) (AmqpConnection, error) {
		return Dial(url, defaultReconnectDelay, logger)
	}, logger)
}

func NewTransportWithDialer(url string, dialer Dialer, logger log.Logger) transport.Transport {
	return &amqpTransport{
		url:               url,
		dialer:            dialer,
		logger:            logger,
		consumingChannels: make(map[AmqpChannel]struct{}),
	}
}

type amqpTransport struct {
	url               string
	dialer            Dialer
	connection        AmqpConnection
	publishingChannel AmqpChannel
	mutex             sync.Mutex
	consumingChannels map[AmqpChannel]struct{}
	logger            log.Logger
}

func (t *amqpTransport) Connect(ctx context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.connection != nil {
		return nil
	}

	conn, err := t.dialer(t.url)
	if err != nil {
		return errors.WithStack(err)
	}

	t.connection = conn

	return nil
}

// CreateTopic declares a topic exchange. Topic must be created by amqp.Topic
func (t *amqpTransport) CreateTopic(ctx context.Context, topic transport.Topic) error {
	amqpTopic, topicConv := topic.(amqpTopic)
	if !topicConv {
		return errors.Errorf("supplied topic %s is not an instance of amqp.amqpTopic", topic.Name())
	}

	channel, err := t.getPublishingChannel()
	if err != nil {
		return errors.WithStack(err)
	}

	if err := channel.ExchangeDeclare(
		amqpTopic.Name(),
		amqp.ExchangeTopic,
		amqpTopic.durable,
		amqpTopic.autoDelete,
		false,
		false,
		nil,
	); err != nil {
		return errors.Wrapf(err, "declaring exchange %s", amqpTopic.Name())
	}

	return nil
}

func (t *amqpTransport) CreateQueue(ctx context.Context, q transport.Queue, qbs ...transport.QueueBind) error {
	queue, queueConv := q.(amqpQueue)
	if !queueConv {
		return errors.Errorf("supplied queue %s is not an instance of amqp.amqpQueue", q.Name())
	}

	queueBinds := make([]amqpQueueBind, 0, len(qbs))

	for _, item := range qbs {
		queueBind, queueBindConv := item.(amqpQueueBind)
		if !queueBindConv {
			return errors.Errorf("one of supplied QueueBinds is not an instance of amqp.amqpQueueBind")
		}

		queueBinds = append(queueBinds, queueBind)
	}

	channel, err := t.getPublishingChannel()
	if err != nil {
		return errors.WithStack(err)
	}

	if _, err := channel.QueueDeclare(
		queue.Name(),
		queue.durable,
		queue.autoDelete,
		false,
		false,
		queue.args(),
	); err != nil {
		return errors.Wrapf(err, "declaring queue %s", queue.Name())
	}

	for _, qb := range queueBinds {
		if err := channel.QueueBind(
			queue.Name(),
			qb.BindingKey(),
			qb.DestinationTopic(),
			false,
			nil,
		); err != nil {
			return errors.Wrapf(err, "binding queue %s to %s", queue.Name(), qb.DestinationTopic())
		}
	}

	return nil
}

func (t *amqpTransport) Send(ctx context.Context, outboundPkg transport.OutboundPkg, options ...transport.SendOpt) error {
	sendOpts := &sendOptions{}

	for _, opt := range options {
		if err := opt(sendOpts); err != nil {
			return errors.WithStack(err)
		}
	}

	channel, err := t.getPublishingChannel()
	if err != nil {
		return errors.WithStack(err)
	}

	headers := amqp.Table{}
	for k, v := range outboundPkg.Headers() {
		headers[k] = v
	}

	if err := channel.Publish(
		outboundPkg.Destination().DestinationTopic,
		outboundPkg.Destination().RoutingKey,
		sendOpts.Mandatory,
		false,
		amqp.Publishing{
			Headers:      headers,
			ContentType:  outboundPkg.ContentType(),
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         outboundPkg.Payload(),
		},
	); err != nil {
		return errors.Wrap(err, "sending out pkg")
	}

	return nil
}

func (t *amqpTransport) Consume(ctx context.Context, queues []transport.Queue, options ...transport.ConsumeOpt) (<-chan transport.IncomingPkg, error) {
	consumeOpts := &consumeOptions{}

	for _, opt := range options {
		if err := opt(consumeOpts); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	consumingChannel, err := t.createConsumingChannel()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if consumeOpts.PrefetchCount > 0 {
		if err := consumingChannel.Qos(int(consumeOpts.PrefetchCount), 0, false); err != nil {
			t.releaseConsumingChannel(consumingChannel)
			return nil, errors.Wrap(err, "setting qos")
		}
	}

	income := make(chan transport.IncomingPkg)
	consumersWait := &sync.WaitGroup{}
	consumersCtx, cancelConsumers := context.WithCancel(ctx)

	for _, q := range queues {
		deliveries, err := consumingChannel.Consume(
			q.Name(),
			q.Name(),
			false,
			consumeOpts.Exclusive,
			false,
			false,
			nil,
		)

		if err != nil {
			// stops consumers started for previous queues
			cancelConsumers()
			consumersWait.Wait()
			t.releaseConsumingChannel(consumingChannel)
			return nil, errors.Wrapf(err, "consuming %s", q.Name())
		}

		consumersWait.Add(1)

		go func(queue transport.Queue, deliveries <-chan amqp.Delivery) {
			defer consumersWait.Done()

			defer func() {
				if err := consumingChannel.Cancel(queue.Name(), false); err != nil {
					t.logger.Logf(log.ErrorLevel, "error canceling consumer %s. %s", queue.Name(), err)
					return
				}
				t.logger.Logf(log.InfoLevel, "canceled consumer %s", queue.Name())
			}()

			for {
				select {
				case msg, open := <-deliveries:
					if !open {
						t.logger.Logf(log.WarnLevel, "amqp consumer closed channel for queue %s", queue.Name())
						return
					}

					select {
					case income <- &inAmqpPkg{origin: queue.Name(), receivedAt: time.Now(), delivery: &delivery{msg: &msg}}:
					case <-consumersCtx.Done():
						if err := msg.Nack(false, true); err != nil {
							t.logger.Logf(log.ErrorLevel, "error returning delivery to queue %s. %s", queue.Name(), err)
						}
						return
					}
				case <-consumersCtx.Done():
					t.logger.Logf(log.InfoLevel, "stopped consuming queue %s", queue.Name())
					return
				}
			}
		}(q, deliveries)
	}

	go func() {
		consumersWait.Wait()
		cancelConsumers()
		t.releaseConsumingChannel(consumingChannel)
		close(income)
	}()

	return income, nil
}

func (t *amqpTransport) Disconnect(ctx context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.connection == nil {
		return nil
	}

	if t.publishingChannel != nil {
		if err := t.publishingChannel.Close(); err != nil {
			return errors.Wrap(err, "closing publishing channel")
		}
		t.publishingChannel = nil
	}

	for ch := range t.consumingChannels {
		if err := ch.Close(); err != nil {
			return errors.Wrap(err, "closing one of consuming channels")
		}
		delete(t.consumingChannels, ch)
	}

	if err := t.connection.Close(); err != nil {
		return errors.Wrap(err, "closing connection")
	}

	t.connection = nil

	return nil
}

func (t *amqpTransport) getPublishingChannel() (AmqpChannel, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.connection == nil {
		return nil, errors.New("connection is nil")
	}

	if t.publishingChannel != nil {
		return t.publishingChannel, nil
	}

	channel, err := t.connection.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "creating publishing channel")
	}

	t.publishingChannel = channel

	return channel, nil
}

func (t *amqpTransport) createConsumingChannel() (AmqpChannel, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.connection == nil {
		return nil, errors.New("connection is nil")
	}

	channel, err := t.connection.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "creating consuming channel")
	}

	t.consumingChannels[channel] = struct{}{}

	return channel, nil
}

func (t *amqpTransport) releaseConsumingChannel(channel AmqpChannel) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, tracked := t.consumingChannels[channel]; !tracked {
		return
	}

	delete(t.consumingChannels, channel)

	if err := channel.Close(); err != nil {
		t.logger.Logf(log.ErrorLevel, "error closing consuming channel. %s", err)
		return
	}

	t.logger.Log(log.InfoLevel, "closed consuming channel")
}
