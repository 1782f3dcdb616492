package connector

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Listen subscribes sink to NOTIFY on channel. A single physical
// connection is dedicated to listening per distinct channel and fanned out
// in-process to every sink subscribed to that channel through a
// non-blocking broadcaster, so a slow sink can never stall delivery to the
// others or to the goroutine reading WaitForNotification.
//
// If the pool has only one connection total, a dedicated listener would
// starve Execute, so Listen logs once and returns ErrListenUnavailable;
// the worker is expected to fall back to poll-only in that configuration.
func (c *PGXConnector) Listen(ctx context.Context, channel string, sink func(Notification)) error {
	if c.cfg.PoolSize <= 1 {
		c.logger.WarnContext(ctx, "connector: listen disabled, pool too small", slog.Int("pool_size", int(c.cfg.PoolSize)))
		return ErrListenUnavailable
	}

	b := c.broadcasterFor(channel)
	b.subscribe(ctx, sink)

	c.ensureListening(ctx, channel, b)
	return nil
}

func (c *PGXConnector) broadcasterFor(channel string) *notifyBroadcaster {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	b, ok := c.broadcasters[channel]
	if !ok {
		b = newNotifyBroadcaster()
		c.broadcasters[channel] = b
	}
	return b
}

// ensureListening starts the reconnect-and-listen goroutine for channel
// exactly once, the first time a subscriber asks for it.
func (c *PGXConnector) ensureListening(ctx context.Context, channel string, b *notifyBroadcaster) {
	if !b.markListening() {
		return
	}
	go c.listenLoop(ctx, channel, b)
}

func (c *PGXConnector) listenLoop(ctx context.Context, channel string, b *notifyBroadcaster) {
	backoff := c.cfg.ListenRetryInterval
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.listenOnce(ctx, channel, b); err != nil {
			c.logger.WarnContext(ctx, "connector: listen connection lost, reconnecting",
				slog.String("channel", channel), slog.String("error", err.Error()), slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.cfg.ListenRetryMax {
				backoff = c.cfg.ListenRetryMax
			}
			continue
		}
		backoff = c.cfg.ListenRetryInterval
	}
}

// listenOnce acquires a dedicated connection, issues LISTEN, and blocks
// delivering notifications until the connection drops or ctx is cancelled.
func (c *PGXConnector) listenOnce(ctx context.Context, channel string, b *notifyBroadcaster) error {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, fmt.Sprintf("LISTEN %q", channel)); err != nil {
		return err
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		b.broadcast(Notification{Channel: n.Channel, Payload: n.Payload})
	}
}

