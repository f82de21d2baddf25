package events

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"convo_backend/internal/logger"
)

const TaskTypeChatEvent = "chat:event"

// AsynqNotifier hands committed events to a background queue so delivery to
// offline members (push, badge counts) never blocks or fails the request.
type AsynqNotifier struct {
	client *asynq.Client
}

func NewAsynqNotifier(client *asynq.Client) *AsynqNotifier {
	return &AsynqNotifier{client: client}
}

func (n *AsynqNotifier) Publish(envelope Envelope) {
	if envelope.Type == TypeTyping {
		// Typing is ephemeral, it never goes through the queue.
		return
	}

	payload, err := json.Marshal(notifyTask{
		Type:           envelope.Type,
		ConversationID: envelope.ConversationID,
		ActorID:        envelope.ActorID,
		Recipients:     envelope.Recipients,
		Payload:        envelope.Payload,
		OccurredAt:     envelope.OccurredAt,
	})
	if err != nil {
		logger.WithError(err).Error("failed to marshal chat event task")
		return
	}

	task := asynq.NewTask(TaskTypeChatEvent, payload)
	if _, err := n.client.Enqueue(task, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)); err != nil {
		logger.WithError(err).Error("failed to enqueue chat event task",
			"event_type", envelope.Type,
			"conversation_id", envelope.ConversationID)
	}
}

type notifyTask struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id"`
	ActorID        string          `json:"actor_id"`
	Recipients     []string        `json:"recipients"`
	Payload        json.RawMessage `json:"payload"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
