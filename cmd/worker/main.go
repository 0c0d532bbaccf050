package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/chat-exchange/internal/config"
	"github.com/suPer8Hu/chat-exchange/internal/logger"
	"github.com/suPer8Hu/chat-exchange/internal/store/rabbitmq"
	"github.com/suPer8Hu/chat-exchange/internal/store/redisstore"
	"go.uber.org/zap"
)

const retryDelay = 5 * time.Second

type usageCounter interface {
	IncrUsage(ctx context.Context, userID, modelTag, outcome string) error
}

type errBadMessage struct{ err error }

func (e errBadMessage) Error() string { return "bad message: " + e.err.Error() }

// handleEvent records one exchange outcome.
func handleEvent(ctx context.Context, counter usageCounter, body []byte) error {
	ev, err := rabbitmq.DecodeExchangeEvent(body)
	if err != nil {
		return errBadMessage{err}
	}
	return counter.IncrUsage(ctx, ev.UserID, ev.ModelTag, ev.Outcome)
}

func main() {
	defer logger.Sync()
	log := logger.L()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if cfg.RabbitURL == "" || cfg.RedisAddr == "" {
		log.Fatal("worker needs RABBIT_URL and REDIS_ADDR")
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("rabbit dial", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("rabbit channel", zap.Error(err))
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.RabbitQueue); err != nil {
		log.Fatal("queue declare", zap.Error(err))
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal("qos", zap.Error(err))
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started", zap.String("queue", cfg.RabbitQueue), zap.Int("concurrency", concurrency))

	// publishing on the shared channel is serialized
	var pubMu sync.Mutex
	retry := func(d amqp.Delivery) error {
		pubMu.Lock()
		defer pubMu.Unlock()
		return ch.PublishWithContext(ctx, "", rabbitmq.RetryQueue(cfg.RabbitQueue), false, false, amqp.Publishing{
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         d.Body,
			Expiration:   strconv.FormatInt(retryDelay.Milliseconds(), 10),
			Timestamp:    time.Now(),
		})
	}

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := log.With(zap.Int("worker", workerID))
			for d := range jobs {
				start := time.Now()
				err := handleEvent(ctx, rds, d.Body)
				switch {
				case err == nil:
					if err := d.Ack(false); err != nil {
						wlog.Warn("ack failed", zap.Error(err))
					}
				case isBadMessage(err):
					wlog.Warn("dropping message to dlq", zap.Error(err))
					_ = d.Nack(false, false)
				default:
					wlog.Warn("usage update failed, scheduling retry", zap.Duration("cost", time.Since(start)), zap.Error(err))
					if rerr := retry(d); rerr != nil {
						wlog.Error("retry publish failed", zap.Error(rerr))
						_ = d.Nack(false, false)
						continue
					}
					_ = d.Ack(false)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Error("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

func isBadMessage(err error) bool {
	_, ok := err.(errBadMessage)
	return ok
}
