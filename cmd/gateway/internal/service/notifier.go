package service

import (
	"context"
	"log"
	"time"

	"github.com/ALABELEWE/nigeria-tax-ussd/infra/queue"
	"github.com/ALABELEWE/nigeria-tax-ussd/infra/sms"
)

// QueueNotifier publishes outbound SMS onto the message queue; the
// sms-worker picks them up and talks to the SMS provider. Publish failures
// are logged and dropped, matching the at-least-effort delivery contract.
type QueueNotifier struct {
	producer *queue.Producer
	topic    string
}

func NewQueueNotifier(producer *queue.Producer, topic string) *QueueNotifier {
	return &QueueNotifier{producer: producer, topic: topic}
}

func (n *QueueNotifier) SendAsync(phoneNumber, message, language string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic publishing SMS for %s: %v", phoneNumber, r)
			}
		}()

		payload, err := queue.NewSmsPayload(phoneNumber, message, language).Marshal()
		if err != nil {
			log.Printf("failed to marshal SMS payload for %s: %v", phoneNumber, err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.producer.Send(ctx, n.topic, payload); err != nil {
			log.Printf("failed to enqueue SMS for %s: %v", phoneNumber, err)
			return
		}
		log.Printf("SMS enqueued for %s", phoneNumber)
	}()
}

// DirectNotifier sends through the SMS provider in-process. Used when the
// queue is disabled in config.
type DirectNotifier struct {
	client *sms.Client
}

func NewDirectNotifier(client *sms.Client) *DirectNotifier {
	return &DirectNotifier{client: client}
}

func (n *DirectNotifier) SendAsync(phoneNumber, message, _ string) {
	n.client.SendAsync(phoneNumber, message)
}
