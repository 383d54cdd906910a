// Package pull drives asynchronous image pulls to completion through
// the session-based polling protocol, so no single network call has to
// outlive a long pull.
package pull

import (
	"context"
	"fmt"
	"time"

	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/pkg/logger"
)

// PollInterval is the fixed delay between status polls. Polling is
// cooperative delay-then-poll; the server applies no backpressure.
const PollInterval = 1000 * time.Millisecond

const stopTimeout = 10 * time.Second

// API is the slice of the Podman contract the client needs.
type API interface {
	PullStream(ctx context.Context, ref string) (string, error)
	PullStatus(ctx context.Context, sessionID string, offset int) (*domain.PullStatus, error)
	PullStop(ctx context.Context, sessionID string) error
}

// Client is the polling state machine for streaming pull sessions.
type Client struct {
	api      API
	interval time.Duration
	log      *logger.Logger
}

// NewClient creates a pull session client polling at PollInterval.
func NewClient(api API) *Client {
	return &Client{
		api:      api,
		interval: PollInterval,
		log:      logger.GetLogger(),
	}
}

// PullImage starts a pull session for ref and waits for it to
// complete. The returned bool is the pull's success flag.
// onProgress, when non-nil, receives each incremental output chunk in
// strict append order.
func (c *Client) PullImage(ctx context.Context, ref string, onProgress func(string)) (bool, error) {
	if ref == "" {
		return false, domain.ErrEmptyImageRef
	}

	sessionID, err := c.api.PullStream(ctx, ref)
	if err != nil {
		return false, fmt.Errorf("failed to start pull for %s: %w", ref, err)
	}
	if sessionID == "" {
		return false, domain.ErrPullStart
	}

	c.log.Debug("pull session started", "image", ref, "session", sessionID)
	return c.WaitForComplete(ctx, sessionID, onProgress)
}

// WaitForComplete polls the session until the server reports
// completion. The local offset only advances forward, by the length of
// each received chunk, so progress callbacks are never replayed or
// skipped. A poll failure is terminal for the session: the client
// stops the server-side session (best effort, exactly once) and
// returns the original error. Cancelling ctx takes the same cleanup
// path so an abandoned wait does not orphan the session.
func (c *Client) WaitForComplete(ctx context.Context, sessionID string, onProgress func(string)) (bool, error) {
	offset := 0
	for {
		status, err := c.api.PullStatus(ctx, sessionID, offset)
		if err != nil {
			c.stopSession(sessionID)
			return false, err
		}

		if status.Output != "" {
			offset += len(status.Output)
			if onProgress != nil {
				onProgress(status.Output)
			}
		}

		if status.Complete {
			return status.Success, nil
		}

		select {
		case <-ctx.Done():
			c.stopSession(sessionID)
			return false, ctx.Err()
		case <-time.After(c.interval):
		}
	}
}

// stopSession stops a server-side session. Failures are consciously
// discarded: the stop is hygiene, not correctness, and the caller's
// original error must survive.
func (c *Client) stopSession(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := c.api.PullStop(ctx, sessionID); err != nil {
		c.log.Warn("failed to stop pull session", "session", sessionID, "error", err)
	}
}
