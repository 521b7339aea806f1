package entity

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Checkable is the type-erased view of a Collection that the consistency
// checker needs.
type Checkable interface {
	Name() string
	CheckConsistency(ctx context.Context) (Divergence, error)
}

// Divergence summarizes index/record disagreement for one entity type.
type Divergence struct {
	// MissingRecords counts IDs present in the index with no stored record.
	MissingRecords int
	// OrphanRecords counts stored records whose ID is absent from the index.
	OrphanRecords int
}

// Clean reports whether index and record set agree.
func (d Divergence) Clean() bool {
	return d.MissingRecords == 0 && d.OrphanRecords == 0
}

// CheckConsistency compares the index against the stored record keys.
// It only reads, never repairs: divergence is surfaced as a signal for
// operators, matching List's skip-and-log degradation.
func (c *Collection[T]) CheckConsistency(ctx context.Context) (Divergence, error) {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	ids, err := c.loadIndex(ctx)
	if err != nil {
		return Divergence{}, err
	}
	indexed := make(map[string]bool, len(ids))
	for _, id := range ids {
		indexed[id] = true
	}

	prefix := c.def.Name + "/"
	keys, err := c.store.ListKeys(ctx, prefix)
	if err != nil {
		return Divergence{}, err
	}
	stored := make(map[string]bool, len(keys))
	for _, k := range keys {
		stored[k[len(prefix):]] = true
	}

	var d Divergence
	for id := range indexed {
		if !stored[id] {
			d.MissingRecords++
		}
	}
	for id := range stored {
		if !indexed[id] {
			d.OrphanRecords++
		}
	}
	return d, nil
}

// Checker runs periodic index/record consistency checks over a set of
// collections using a cron schedule.
type Checker struct {
	cron    *cron.Cron
	sources []Checkable
	logger  *slog.Logger
}

// NewChecker creates a checker for the given collections.
func NewChecker(logger *slog.Logger, sources ...Checkable) *Checker {
	return &Checker{
		cron:    cron.New(),
		sources: sources,
		logger:  logger.With("component", "consistency-checker"),
	}
}

// Start schedules the check with the given cron expression and starts the
// scheduler.
func (c *Checker) Start(schedule string) error {
	if _, err := c.cron.AddFunc(schedule, func() {
		c.RunOnce(context.Background())
	}); err != nil {
		return err
	}
	c.cron.Start()
	c.logger.Info("consistency checker started", "schedule", schedule)
	return nil
}

// Stop gracefully stops the scheduler.
func (c *Checker) Stop() {
	c.cron.Stop()
	c.logger.Info("consistency checker stopped")
}

// RunOnce checks every collection and logs any divergence.
func (c *Checker) RunOnce(ctx context.Context) {
	for _, src := range c.sources {
		d, err := src.CheckConsistency(ctx)
		if err != nil {
			c.logger.Error("consistency check failed", "entity", src.Name(), "error", err)
			continue
		}
		if !d.Clean() {
			c.logger.Warn("index/record divergence detected",
				"entity", src.Name(),
				"missing_records", d.MissingRecords,
				"orphan_records", d.OrphanRecords,
			)
			continue
		}
		c.logger.Debug("consistency check clean", "entity", src.Name())
	}
}
