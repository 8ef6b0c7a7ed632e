package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher hands emails to the broker instead of sending them inline.  It
// satisfies notify.Notifier.  A connection is dialled per message, so a
// broker restart never leaves the publisher holding a dead channel.
type Publisher struct {
    URL   string
    Queue string

    dial func(url string) (channel, func(), error)
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
    QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

func NewPublisher(url, queue string) *Publisher {
    return &Publisher{URL: url, Queue: queue, dial: dialChannel}
}

func dialChannel(url string) (channel, func(), error) {
    conn, err := amqp.Dial(url)
    if err != nil {
        return nil, nil, fmt.Errorf("rabbitmq: dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, fmt.Errorf("rabbitmq: channel open: %w", err)
    }
    return ch, func() { _ = ch.Close(); _ = conn.Close() }, nil
}

// Send publishes one EmailEvent as a persistent JSON message on the
// default exchange, routed to the configured queue.
func (p *Publisher) Send(ctx context.Context, to, subject, body string) error {
    ev := EmailEvent{To: to, Subject: subject, Body: body, CreatedAt: time.Now().UTC()}
    payload, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("rabbitmq: marshal event: %w", err)
    }

    ch, closeFn, err := p.dial(p.URL)
    if err != nil {
        return err
    }
    defer closeFn()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("rabbitmq: queue declare: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    ev.CreatedAt,
        Body:         payload,
    }
    if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
        return fmt.Errorf("rabbitmq: publish: %w", err)
    }
    return nil
}
