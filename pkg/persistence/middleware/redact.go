package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

type redactMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks matches of patterns in the error and history of saved records.
// Target responses often end up in error messages; this keeps credentials and hosts out of the store.
func NewRedactMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.RunStore) ports.RunStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, rec *domain.RunRecord) error {
	// The runner keeps using rec after Save.
	masked := *rec
	masked.Error = m.mask(rec.Error)
	if len(rec.History) > 0 {
		masked.History = make([]string, len(rec.History))
		for i, h := range rec.History {
			masked.History[i] = m.mask(h)
		}
	}
	return m.next.Save(ctx, &masked)
}

func (m *redactMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *redactMiddleware) Load(ctx context.Context, id string) (*domain.RunRecord, error) {
	return m.next.Load(ctx, id)
}

func (m *redactMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
