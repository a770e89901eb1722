package workers

import (
	"context"
	"log"
	"time"
)

// DuesChecker sends overdue and due-soon notifications, returning how many were written.
type DuesChecker interface {
	CheckDues(ctx context.Context) (int, error)
}

// DuesReminder runs the dues check once at start and then on every tick.
type DuesReminder struct {
	checker  DuesChecker
	interval time.Duration
}

// NewDuesReminder builds a worker. A zero interval disables it.
func NewDuesReminder(checker DuesChecker, interval time.Duration) *DuesReminder {
	return &DuesReminder{checker: checker, interval: interval}
}

// Run blocks until ctx is done.
func (d *DuesReminder) Run(ctx context.Context) error {
	if d.interval <= 0 {
		log.Println("dues reminder disabled")
		return nil
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.check(ctx)
		}
	}
}

func (d *DuesReminder) check(ctx context.Context) {
	sent, err := d.checker.CheckDues(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("dues reminder: %v", err)
		}
		return
	}
	if sent > 0 {
		log.Printf("dues reminder: sent %d notifications", sent)
	}
}
