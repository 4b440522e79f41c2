package bus

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// HandlerFunc обрабатывает одно сообщение. Ошибка логируется, но offset
// коммитится в любом случае (ack-always): хендлер сам гарантирует негативный
// ответ при сбое, а redelivery дал бы дубли и залипание партиции на
// отравленном сообщении.
type HandlerFunc func(ctx context.Context, key, value []byte) error

// Consumer — пул воркеров одной consumer group на одном топике. Партиции
// Kafka раздаёт между ридерами сам; порядок гарантирован только внутри
// партиции, то есть в пределах одного correlation id.
type Consumer struct {
	brokers []string
	groupID string
	topic   string
	workers int
	handler HandlerFunc
}

func NewConsumer(brokers []string, groupID, topic string, workers int, handler HandlerFunc) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		brokers: brokers,
		groupID: groupID,
		topic:   topic,
		workers: workers,
		handler: handler,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c.runWorker(ctx, worker)
		}(i)
	}
	wg.Wait()
}

func (c *Consumer) runWorker(ctx context.Context, worker int) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: c.brokers,
		GroupID: c.groupID,
		Topic:   c.topic,
	})
	defer r.Close()

	log.Printf("[bus][consume] topic=%s worker=%d started", c.topic, worker)
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("[bus][consume] topic=%s worker=%d stopped", c.topic, worker)
				return
			}
			log.Printf("[bus][consume][err] topic=%s worker=%d fetch: %v", c.topic, worker, err)
			time.Sleep(time.Second)
			continue
		}

		if err := c.handler(ctx, m.Key, m.Value); err != nil {
			log.Printf("[bus][consume][err] topic=%s key=%s handler: %v", c.topic, string(m.Key), err)
		}

		if err := r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[bus][consume][err] topic=%s key=%s commit: %v", c.topic, string(m.Key), err)
		}
	}
}
