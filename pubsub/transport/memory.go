package transport

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

const memoryQueueCapacity = 1024

// NewMemoryTransport creates an in-process Transport with topic exchange semantics.
// Binding keys match exactly, "#" matches everything and "prefix.#" matches any key starting with "prefix.".
func NewMemoryTransport() Transport {
	return &memoryTransport{
		topics:   xsync.NewMapOf[string, struct{}](),
		queues:   xsync.NewMapOf[string, *memoryQueue](),
		bindings: xsync.NewMapOf[string, []memoryBinding](),
	}
}

// NewTopic, NewQueue and NewQueueBind create plain definitions accepted by the memory transport
func NewTopic(name string) Topic {
	return plainTopic(name)
}

func NewQueue(name string) Queue {
	return plainQueue(name)
}

func NewQueueBind(destinationTopic, bindingKey string) QueueBind {
	return plainQueueBind{destination: destinationTopic, key: bindingKey}
}

type plainTopic string

func (t plainTopic) Name() string {
	return string(t)
}

type plainQueue string

func (q plainQueue) Name() string {
	return string(q)
}

type plainQueueBind struct {
	destination string
	key         string
}

func (b plainQueueBind) DestinationTopic() string {
	return b.destination
}

func (b plainQueueBind) BindingKey() string {
	return b.key
}

type memoryBinding struct {
	queue string
	key   string
}

func (b memoryBinding) matches(routingKey string) bool {
	if b.key == "#" || b.key == routingKey {
		return true
	}

	if strings.HasSuffix(b.key, ".#") {
		return strings.HasPrefix(routingKey, strings.TrimSuffix(b.key, "#"))
	}

	return false
}

type memoryQueue struct {
	name     string
	messages chan *memoryPkg
}

type memoryTransport struct {
	bindingsLock sync.Mutex
	topics       *xsync.MapOf[string, struct{}]
	queues       *xsync.MapOf[string, *memoryQueue]
	bindings     *xsync.MapOf[string, []memoryBinding]
}

func (t *memoryTransport) Connect(ctx context.Context) error {
	return nil
}

func (t *memoryTransport) Disconnect(ctx context.Context) error {
	return nil
}

func (t *memoryTransport) CreateTopic(ctx context.Context, topic Topic) error {
	t.topics.Store(topic.Name(), struct{}{})
	return nil
}

func (t *memoryTransport) CreateQueue(ctx context.Context, queue Queue, queueBinds ...QueueBind) error {
	t.queues.LoadOrStore(queue.Name(), &memoryQueue{name: queue.Name(), messages: make(chan *memoryPkg, memoryQueueCapacity)})

	t.bindingsLock.Lock()
	defer t.bindingsLock.Unlock()

	for _, qb := range queueBinds {
		if _, exists := t.topics.Load(qb.DestinationTopic()); !exists {
			return errors.Errorf("binding queue %s to unknown topic %s", queue.Name(), qb.DestinationTopic())
		}

		binding := memoryBinding{queue: queue.Name(), key: qb.BindingKey()}
		existing, _ := t.bindings.Load(qb.DestinationTopic())

		duplicate := false
		for _, b := range existing {
			if b == binding {
				duplicate = true
				break
			}
		}

		if !duplicate {
			t.bindings.Store(qb.DestinationTopic(), append(existing, binding))
		}
	}

	return nil
}

func (t *memoryTransport) Send(ctx context.Context, outboundPkg OutboundPkg, options ...SendOpt) error {
	destination := outboundPkg.Destination()

	if _, exists := t.topics.Load(destination.DestinationTopic); !exists {
		return errors.Errorf("topic %s does not exist", destination.DestinationTopic)
	}

	bindings, _ := t.bindings.Load(destination.DestinationTopic)

	for _, b := range bindings {
		if !b.matches(destination.RoutingKey) {
			continue
		}

		queue, exists := t.queues.Load(b.queue)
		if !exists {
			continue
		}

		pkg := &memoryPkg{
			payload:     outboundPkg.Payload(),
			headers:     copyHeaders(outboundPkg.Headers()),
			origin:      queue.name,
			publishedAt: time.Now(),
			queue:       queue,
		}

		select {
		case queue.messages <- pkg:
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "sending to queue %s", queue.name)
		}
	}

	return nil
}

func (t *memoryTransport) Consume(ctx context.Context, queues []Queue, options ...ConsumeOpt) (<-chan IncomingPkg, error) {
	memoryQueues := make([]*memoryQueue, len(queues))

	for i, q := range queues {
		queue, exists := t.queues.Load(q.Name())
		if !exists {
			return nil, errors.Errorf("consuming %s: queue does not exist", q.Name())
		}
		memoryQueues[i] = queue
	}

	income := make(chan IncomingPkg)
	consumersWait := &sync.WaitGroup{}

	for _, queue := range memoryQueues {
		consumersWait.Add(1)
		go func(queue *memoryQueue) {
			defer consumersWait.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case pkg := <-queue.messages:
					received := *pkg
					received.receivedAt = time.Now()
					select {
					case income <- &received:
					case <-ctx.Done():
						// put it back, nobody is going to process it
						queue.messages <- pkg
						return
					}
				}
			}
		}(queue)
	}

	go func() {
		consumersWait.Wait()
		close(income)
	}()

	return income, nil
}

func copyHeaders(headers map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(headers))
	for k, v := range headers {
		c[k] = v
	}
	return c
}

type memoryPkg struct {
	payload     []byte
	headers     map[string]interface{}
	origin      string
	publishedAt time.Time
	receivedAt  time.Time
	queue       *memoryQueue
}

func (p *memoryPkg) UID() string {
	if uid, ok := p.headers["uid"].(string); ok {
		return uid
	}

	return ""
}

func (p *memoryPkg) Origin() string {
	return p.origin
}

func (p *memoryPkg) Payload() []byte {
	return p.payload
}

func (p *memoryPkg) Headers() map[string]interface{} {
	return p.headers
}

func (p *memoryPkg) Ack(options ...AcknowledgmentOption) error {
	return nil
}

// Nack puts the package back to its queue if requeue option is passed
func (p *memoryPkg) Nack(options ...AcknowledgmentOption) error {
	return p.requeue(options...)
}

func (p *memoryPkg) Reject(options ...AcknowledgmentOption) error {
	return p.requeue(options...)
}

func (p *memoryPkg) requeue(options ...AcknowledgmentOption) error {
	if CollectAckOptions(options...).Requeue {
		redelivered := *p
		redelivered.receivedAt = time.Time{}
		select {
		case p.queue.messages <- &redelivered:
		default:
			return errors.Errorf("queue %s is full, package %s is dropped", p.queue.name, p.UID())
		}
	}

	return nil
}

func (p *memoryPkg) PublishedAt() time.Time {
	return p.publishedAt
}

func (p *memoryPkg) ReceivedAt() time.Time {
	return p.receivedAt
}
