package dashboard

import (
	"context"
	"log"

	"fuel-dashboard-backend/internal/model"
)

// recordSample persists the totals at most once per sample interval.
func (c *Controller) recordSample(ctx context.Context, snap *model.Snapshot) {
	if c.store == nil || c.opts.SampleInterval <= 0 {
		return
	}

	now := c.now()
	c.sampleMu.Lock()
	if !c.lastSampleAt.IsZero() && now.Sub(c.lastSampleAt) < c.opts.SampleInterval {
		c.sampleMu.Unlock()
		return
	}
	c.lastSampleAt = now
	c.sampleMu.Unlock()

	if err := c.store.RecordSample(ctx, now, snap); err != nil {
		log.Printf("Error recording sample: %v", err)
	}
}

func (c *Controller) openSession(ctx context.Context) {
	if c.store == nil {
		return
	}
	session, err := c.store.OpenSession(ctx, c.now())
	if err != nil {
		log.Printf("Error opening fueling session: %v", err)
		return
	}

	c.mu.Lock()
	c.sessionID = session.ID
	c.mu.Unlock()
	log.Printf("Fueling session %d started", session.ID)
}

// closeSession stamps the open session with final totals. Without a final
// snapshot the last rendered one is used.
func (c *Controller) closeSession(ctx context.Context, final *model.Snapshot) {
	c.mu.Lock()
	id := c.sessionID
	c.sessionID = 0
	c.mu.Unlock()

	if c.store == nil || id == 0 {
		return
	}
	if final == nil {
		final = c.LastSnapshot()
	}
	if err := c.store.CloseSession(ctx, id, c.now(), final); err != nil {
		log.Printf("Error closing fueling session %d: %v", id, err)
		return
	}
	log.Printf("Fueling session %d finished", id)

	if c.notifier != nil {
		c.notifier.SessionFinished(id)
	}
}
