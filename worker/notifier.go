package worker

import (
	"context"

	"github.com/pgqueue/pgqueue/connector"
)

// Notifier is the slice of Connector a Worker needs to wake its
// sub-workers immediately on NOTIFY instead of waiting out the next poll
// tick. Satisfied structurally by *connector.PGXConnector.
type Notifier interface {
	Listen(ctx context.Context, channel string, sink func(connector.Notification)) error
}

// notifyAnyQueueChannel and queueChannel mirror the channel names the
// procrastinate_notify_queue trigger (store/migrations/00002_notify_trigger.sql)
// publishes on: one channel covering every queue, one scoped to a single
// queue name. Kept in sync with the migration by hand since the worker
// package does not import store.
const notifyAnyQueueChannel = "procrastinate_any_queue"

func queueChannel(queue string) string {
	return "procrastinate_queue#" + queue
}

// listenChannels returns the NOTIFY channels a worker serving queues
// should subscribe to: every queue gets its own channel, or the
// catch-all channel when queues is empty (serving every queue).
func listenChannels(queues []string) []string {
	if len(queues) == 0 {
		return []string{notifyAnyQueueChannel}
	}
	channels := make([]string, len(queues))
	for i, q := range queues {
		channels[i] = queueChannel(q)
	}
	return channels
}
