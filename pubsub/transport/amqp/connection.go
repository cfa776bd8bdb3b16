package amqp

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/go-foreman/ordersaga/log"
)

const (
	defaultReconnectDelay = time.Second * 3
	reconnectCount        = 20
)

// Dial opens a connection which redials the broker when it is lost.
func Dial(url string, reconnectDelay time.Duration, logger log.Logger) (*Connection, error) {
	underlying, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dialing amqp")
	}

	conn := NewReconnectConnection(logger, underlying, reconnectDelay)

	go func() {
		for {
			reason, ok := <-underlying.NotifyClose(make(chan *amqp.Error))
			if !ok || conn.closedExplicitly() {
				logger.Log(log.InfoLevel, "connection closed explicitly")
				return
			}

			logger.Logf(log.WarnLevel, "connection closed, reason: %v", reason)

			var reconnectedCount uint
			for {
				time.Sleep(conn.reconnectDelay)

				if reconnectedCount > reconnectCount {
					logger.Logf(log.ErrorLevel, "reached limit of reconnects %d", reconnectCount)
					return
				}
				reconnectedCount++

				redialed, err := amqp.Dial(url)
				if err == nil {
					underlying = redialed
					conn.swap(redialed)
					logger.Log(log.InfoLevel, "successfully reconnected amqp connection")
					break
				}

				logger.Logf(log.ErrorLevel, "reconnect failed, err: %v", err)
			}
		}
	}()

	return conn, nil
}

// Connection keeps pointing to a live underlying connection, channels created by it reopen themselves.
type Connection struct {
	logger         log.Logger
	mutex          sync.RWMutex
	underlyingConn UnderlyingConnection
	reconnectDelay time.Duration
	closed         int32
}

func NewReconnectConnection(logger log.Logger, underlyingConn UnderlyingConnection, reconnectDelay time.Duration) *Connection {
	if reconnectDelay <= 0 {
		reconnectDelay = defaultReconnectDelay
	}

	return &Connection{
		logger:         logger,
		underlyingConn: underlyingConn,
		reconnectDelay: reconnectDelay,
	}
}

func (c *Connection) swap(underlyingConn UnderlyingConnection) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.underlyingConn = underlyingConn
}

func (c *Connection) current() UnderlyingConnection {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.underlyingConn
}

func (c *Connection) closedExplicitly() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Connection) Close() error {
	atomic.StoreInt32(&c.closed, 1)
	return c.current().Close()
}

func (c *Connection) IsClosed() bool {
	return c.current().IsClosed()
}

// Channel opens a channel which is recreated after the broker closes it
func (c *Connection) Channel() (AmqpChannel, error) {
	ch, err := c.current().Channel()
	if err != nil {
		return nil, errors.Wrap(err, "creating channel")
	}

	channel := &Channel{
		logger:                   c.logger,
		consumeReconnectionDelay: c.reconnectDelay,
	}
	channel.setUnderlying(ch)

	go func() {
		for {
			reason, ok := <-channel.underlying().NotifyClose(make(chan *amqp.Error))
			if !ok || channel.IsClosed() {
				c.logger.Log(log.DebugLevel, "channel closed")
				return
			}
			c.logger.Logf(log.WarnLevel, "channel closed, reason: %v", reason)

			for {
				time.Sleep(c.reconnectDelay)

				if channel.IsClosed() {
					return
				}

				ch, err := c.current().Channel()
				if err == nil {
					channel.setUnderlying(ch)
					break
				}

				c.logger.Logf(log.ErrorLevel, "channel recreate failed, err: %v", err)
			}
		}
	}()

	return channel, nil
}

// Channel wraps amqp channel and swaps it after reconnect
type Channel struct {
	mutex                    sync.RWMutex
	amqpChannel              AmqpChannel
	closed                   int32
	logger                   log.Logger
	consumeReconnectionDelay time.Duration
}

func (ch *Channel) setUnderlying(amqpChannel AmqpChannel) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()
	ch.amqpChannel = amqpChannel
}

func (ch *Channel) underlying() AmqpChannel {
	ch.mutex.RLock()
	defer ch.mutex.RUnlock()
	return ch.amqpChannel
}

// IsClosed indicates the channel was closed by a caller
func (ch *Channel) IsClosed() bool {
	return atomic.LoadInt32(&ch.closed) == 1
}

func (ch *Channel) Close() error {
	if !atomic.CompareAndSwapInt32(&ch.closed, 0, 1) {
		return amqp.ErrClosed
	}

	return ch.underlying().Close()
}

func (ch *Channel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return ch.underlying().ExchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

func (ch *Channel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return ch.underlying().QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
}

func (ch *Channel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return ch.underlying().QueueBind(name, key, exchange, noWait, args)
}

func (ch *Channel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return ch.underlying().Publish(exchange, key, mandatory, immediate, msg)
}

func (ch *Channel) NotifyClose(c chan *amqp.Error) chan *amqp.Error {
	return ch.underlying().NotifyClose(c)
}

func (ch *Channel) Qos(prefetchCount, prefetchSize int, global bool) error {
	return ch.underlying().Qos(prefetchCount, prefetchSize, global)
}

func (ch *Channel) Cancel(consumer string, noWait bool) error {
	return ch.underlying().Cancel(consumer, noWait)
}

// Consume returns deliveries which survive channel recreation, the stream ends only when the channel is closed by a caller
func (ch *Channel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	deliveries := make(chan amqp.Delivery)

	go func() {
		defer close(deliveries)

		var reconnectedCount uint

		for {
			d, err := ch.underlying().Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
			if err != nil {
				ch.logger.Logf(log.ErrorLevel, "consume failed, err: %v", err)
				time.Sleep(ch.consumeReconnectionDelay)

				if reconnectedCount > reconnectCount {
					ch.logger.Logf(log.ErrorLevel, "reached limit of reconnects %d", reconnectCount)
					return
				}

				reconnectedCount++
				ch.logger.Logf(log.DebugLevel, "retrying to reconnect consumer %s", consumer)

				continue
			}

			ch.logger.Logf(log.DebugLevel, "started consuming %s", consumer)

			for msg := range d {
				deliveries <- msg
			}

			if ch.IsClosed() {
				return
			}

			time.Sleep(ch.consumeReconnectionDelay)

			if ch.IsClosed() {
				return
			}
		}
	}()

	return deliveries, nil
}
