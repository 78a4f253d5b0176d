// SPDX-License-Identifier: GPL-3.0-only

package notifications

import (
	"encoding/json"
	"fmt"
	"payauth-server/commons"
	"payauth-server/rabbitmq"
	"sync"
)

// EmailQueue is the broker queue the AMQP provider publishes to and the
// notifier CLI consumes from.
const EmailQueue = "payauth.notifications.email"

type task struct {
	typ      NotificationTypes
	provider NotificationProviders
	data     NotificationData
}

// Dispatcher hands notifications to a single background worker through a
// bounded queue. Flow handlers enqueue and move on; delivery failures are
// logged and never reach the caller.
type Dispatcher struct {
	queue chan task
	wg    sync.WaitGroup
}

func NewDispatcher(capacity int) *Dispatcher {
	d := &Dispatcher{queue: make(chan task, capacity)}
	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.queue {
		if err := Deliver(t.typ, t.provider, t.data); err != nil {
			commons.Logger.Errorf("Failed to dispatch notification:\n%v", err)
		}
	}
}

// Enqueue never blocks. When the queue is full the notification is
// dropped after logging, keeping flow latency independent of delivery.
func (d *Dispatcher) Enqueue(typ NotificationTypes, provider NotificationProviders, data NotificationData) {
	select {
	case d.queue <- task{typ: typ, provider: provider, data: data}:
	default:
		commons.Logger.Warnf("Notification queue full, dropping %s notification to %s", typ, data.To)
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

// DefaultProvider resolves the delivery provider from the environment.
func DefaultProvider() NotificationProviders {
	if commons.GetEnv("MOCK_EMAIL_NOTIFICATIONS") == "true" {
		return Mock
	}
	switch commons.GetEnv("NOTIFICATIONS_TRANSPORT", "smtp") {
	case "amqp":
		return AMQP
	case "mock":
		return Mock
	default:
		return SMTP
	}
}

// Deliver sends one notification synchronously. The notifier CLI uses it
// directly; the Dispatcher worker uses it for queued tasks.
func Deliver(typ NotificationTypes, provider NotificationProviders, data NotificationData) error {
	commons.Logger.Debugf("Dispatching notification:\n- type=%s\n- provider=%s", typ, provider)

	var err error
	switch typ {
	case Email:
		if commons.GetEnv("MOCK_EMAIL_NOTIFICATIONS") == "true" {
			commons.Logger.Debug("Mock email notifications enabled, using mock provider")
			provider = Mock
		}
		err = dispatchEmail(provider, data)
	default:
		err = fmt.Errorf("unsupported notification type: %s", typ)
	}

	if err != nil {
		return err
	}

	commons.Logger.Infof("Notification dispatched successfully:\n- type=%s\n- provider=%s", typ, provider)
	return nil
}

func dispatchEmail(provider NotificationProviders, data NotificationData) error {
	switch provider {
	case SMTP:
		return SMTPClient(data)
	case AMQP:
		return publishToBroker(data)
	case Mock:
		return MockEmailClient(data)
	default:
		return fmt.Errorf("unsupported email provider: %s", provider)
	}
}

func publishToBroker(data NotificationData) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	client, err := rabbitmq.NewClient(rabbitmq.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer client.Close()

	return client.Publish(EmailQueue, body)
}
