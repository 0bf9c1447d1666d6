package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"mindhaven/internal/model"
	"mindhaven/internal/platform/rabbitmq"
)

type MessageStore interface {
	Create(ctx context.Context, msg *model.TherapyMessage) error
}

// MessagePersistWorker drains the therapy message queue into the database.
type MessagePersistWorker struct {
	conn      *amqp.Connection
	store     MessageStore
	queueName string
	log       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMessagePersistWorker(conn *amqp.Connection, store MessageStore, queueName string, log *slog.Logger) *MessagePersistWorker {
	return &MessagePersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		log:       log,
	}
}

func (w *MessagePersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	w.log.Info("message persist worker started", "queue", w.queueName)
	return nil
}

func (w *MessagePersistWorker) handle(ctx context.Context, d amqp.Delivery) {
	msg, err := decodeMessage(d.Body)
	if err != nil {
		w.log.Error("worker decode message failed", "err", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.store.Create(ctx, msg); err != nil {
		w.log.Error("worker persist message failed", "user_id", msg.UserID, "err", err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (w *MessagePersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func decodeMessage(body []byte) (*model.TherapyMessage, error) {
	var msg model.TherapyMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == 0 || msg.Content == "" {
		return nil, fmt.Errorf("incomplete therapy message")
	}
	if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
		return nil, fmt.Errorf("unknown role %q", msg.Role)
	}
	return &msg, nil
}
