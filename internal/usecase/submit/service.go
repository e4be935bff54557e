// Package submit runs the lost-item submission pipeline: validate, admit
// against the daily quota, persist, invalidate cached queries.
package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domitem "github.com/mylost-cloud/mylost/internal/domain/item"
	"github.com/mylost-cloud/mylost/internal/logger"
)

// Service accepts lost-item submissions.
type Service struct {
	limiter Limiter
	writer  Writer
	cache   Invalidator
	now     func() time.Time
	newID   func() string
}

// New creates a submission service.
func New(limiter Limiter, writer Writer, cache Invalidator) *Service {
	return &Service{
		limiter: limiter,
		writer:  writer,
		cache:   cache,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithIDSource overrides the id generator, for tests.
func (s *Service) WithIDSource(newID func() string) *Service {
	s.newID = newID
	return s
}

// Submit validates the draft and persists it as a new item. Validation runs
// before the quota check so malformed submissions never consume a slot. If
// the store write fails after admission, the reserved slot is handed back.
func (s *Service) Submit(ctx context.Context, d domitem.Draft, deviceID string) (domitem.LostItem, error) {
	it, err := domitem.New(d, s.newID(), s.now())
	if err != nil {
		return domitem.LostItem{}, err
	}

	if err := s.limiter.Admit(ctx, deviceID); err != nil {
		return domitem.LostItem{}, err
	}

	if err := s.writer.Insert(ctx, it); err != nil {
		s.limiter.Release(ctx, deviceID)
		return domitem.LostItem{}, fmt.Errorf("persist item: %w", err)
	}

	// New item changes every list and nearby answer; drop them all rather
	// than track which keys it affects.
	s.cache.Clear()

	logger.FromContext(ctx).Info("lost item reported",
		zap.String("id", it.ID),
		zap.String("category", it.Category))
	return it, nil
}
