package service

import (
	"context"
	"fmt"
	"time"
)

// maxSequenceAttempts bounds the day-number retry loop so a pathological
// store can never spin forever.
const maxSequenceAttempts = 50

// SequenceStore defines the DB methods needed to generate order numbers.
// Satisfied by *database.Queries.
type SequenceStore interface {
	MaxOrderSequence(ctx context.Context, datePrefix string) (int32, error)
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
}

// Sequencer generates order numbers. Day numbers look like 20260830-007
// and restart at 001 each day; table numbers look like M5-1756500000000
// and derive uniqueness from the clock instead of a counter.
type Sequencer struct {
	store SequenceStore
	now   func() time.Time
}

func NewSequencer(store SequenceStore) *Sequencer {
	return &Sequencer{store: store, now: time.Now}
}

// NextDayNumber proposes the next free number for today. The prefix is
// recomputed on every attempt so a midnight rollover mid-loop restarts the
// sequence instead of extending yesterday's. The unique index on
// orders.order_number stays the final arbiter; callers retry creation when
// two writers propose the same number.
func (s *Sequencer) NextDayNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxSequenceAttempts; attempt++ {
		prefix := s.now().Format("20060102")

		max, err := s.store.MaxOrderSequence(ctx, prefix)
		if err != nil {
			return "", fmt.Errorf("max order sequence: %w", err)
		}

		candidate := fmt.Sprintf("%s-%03d", prefix, max+1+int32(attempt))
		exists, err := s.store.OrderNumberExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrSequenceExhausted
}

// TableNumber builds the order number for a table session. No retry: a
// collision means two opens raced on the same table within a millisecond,
// and the caller surfaces the unique violation as a duplicate.
func (s *Sequencer) TableNumber(tableNumber int32) string {
	return fmt.Sprintf("M%d-%d", tableNumber, s.now().UnixMilli())
}
