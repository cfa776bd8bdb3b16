package amqp

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

//go:generate mockgen --build_flags=--mod=mod -destination mock_test.go -package amqp . AmqpChannel,AmqpConnection,Delivery

type AmqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	Close() error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Cancel(consumer string, noWait bool) error
}

type AmqpConnection interface {
	Channel() (AmqpChannel, error)
	Close() error
	IsClosed() bool
}

type UnderlyingConnection interface {
	Channel() (*amqp.Channel, error)
	Close() error
	IsClosed() bool
}

// Delivery is the part of amqp.Delivery used by incoming packages
type Delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
	Reject(requeue bool) error
	Headers() amqp.Table
	Body() []byte
	Timestamp() time.Time
}

type delivery struct {
	msg *amqp.Delivery
}

func (d *delivery) Ack(multiple bool) error {
	return d.msg.Ack(multiple)
}

func (d *delivery) Nack(multiple, requeue bool) error {
	return d.msg.Nack(multiple, requeue)
}

func (d *delivery) Reject(requeue bool) error {
	return d.msg.Reject(requeue)
}

func (d *delivery) Headers() amqp.Table {
	return d.msg.Headers
}

func (d *delivery) Body() []byte {
	return d.msg.Body
}

func (d *delivery) Timestamp() time.Time {
	return d.msg.Timestamp
}
