package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/certprep/internal/question"
)

const (
	defaultLookupTimeout     = 2 * time.Second
	defaultLookupConcurrency = 8
)

// BankOptions tunes per-topic bank lookups.
type BankOptions struct {
	LookupTimeout     time.Duration
	LookupConcurrency int
}

func (o BankOptions) withDefaults() BankOptions {
	if o.LookupTimeout <= 0 {
		o.LookupTimeout = defaultLookupTimeout
	}
	if o.LookupConcurrency <= 0 {
		o.LookupConcurrency = defaultLookupConcurrency
	}
	return o
}

// topicLookup fetches the best banked row for one topic; found is false when
// nothing matches.
type topicLookup func(ctx context.Context, topic string) (q question.Question, found bool, err error)

// fanOutTopics runs one lookup per topic concurrently. A failed lookup leaves
// its slot empty and never cancels the others; results keep topic order.
func fanOutTopics(ctx context.Context, topics []string, opts BankOptions, lookup topicLookup) ([]question.Question, error) {
	found := make([]*question.Question, len(topics))
	errs := make([]error, len(topics))

	var g errgroup.Group
	g.SetLimit(opts.LookupConcurrency)
	for i, topic := range topics {
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(ctx, opts.LookupTimeout)
			defer cancel()

			q, ok, err := lookup(lctx, topic)
			if err != nil {
				errs[i] = fmt.Errorf("lookup %q: %w", topic, err)
				return nil
			}
			if ok {
				found[i] = &q
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]question.Question, 0, len(topics))
	for _, q := range found {
		if q != nil {
			out = append(out, *q)
		}
	}
	return out, errors.Join(errs...)
}
