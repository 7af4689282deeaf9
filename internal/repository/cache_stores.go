package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalWatch/internal/domain"
	"SignalWatch/internal/domain/models"
	domrepo "SignalWatch/internal/domain/repository"
	"SignalWatch/pkg/cache"
)

const (
	notifiedPrefix = "notified"
	latestKey      = "latest-signals"
)

// DedupStore keeps one "notified:<id>" marker per signal, expiring after the cooldown.
type DedupStore struct {
	c cache.Service
}

func NewDedupStore(c cache.Service) *DedupStore {
	return &DedupStore{c: c}
}

func NotifiedKey(signalID string) string {
	return cache.Key(notifiedPrefix, signalID)
}

func (s *DedupStore) HasRecentNotification(ctx context.Context, signalID string) (bool, error) {
	ok, err := s.c.Exists(ctx, NotifiedKey(signalID))
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", domain.ErrStoreUnavailable, signalID, err)
	}
	return ok, nil
}

func (s *DedupStore) MarkNotified(ctx context.Context, signalID string, cooldown time.Duration) error {
	if err := s.c.Set(ctx, NotifiedKey(signalID), "true", cooldown); err != nil {
		return fmt.Errorf("%w: mark %s: %v", domain.ErrStoreUnavailable, signalID, err)
	}
	return nil
}

// SignalStore keeps the last published signal set under a single key.
type SignalStore struct {
	c cache.Service
}

func NewSignalStore(c cache.Service) *SignalStore {
	return &SignalStore{c: c}
}

func (s *SignalStore) Publish(ctx context.Context, signals []models.Signal, ttl time.Duration) error {
	if signals == nil {
		signals = []models.Signal{}
	}
	if err := s.c.Set(ctx, latestKey, signals, ttl); err != nil {
		return fmt.Errorf("%w: publish: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Clear overwrites the set with an empty list rather than deleting it.
func (s *SignalStore) Clear(ctx context.Context) error {
	if err := s.c.Set(ctx, latestKey, "[]", 0); err != nil {
		return fmt.Errorf("%w: clear: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// ReadLatest returns an empty, non-nil slice when nothing is published.
func (s *SignalStore) ReadLatest(ctx context.Context) ([]models.Signal, error) {
	out, err := cache.GetTyped[[]models.Signal](ctx, s.c, latestKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		return []models.Signal{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read latest: %v", domain.ErrStoreUnavailable, err)
	}
	if out == nil {
		out = []models.Signal{}
	}
	return out, nil
}

var (
	_ domrepo.DedupStore  = (*DedupStore)(nil)
	_ domrepo.SignalStore = (*SignalStore)(nil)
)
