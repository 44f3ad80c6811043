package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
	"bazaarmcp/internal/infra/telemetry"
)

const itemNotFoundMessage = "Item not found"

// Fetcher is the part of the bazaar client the tools need.
type Fetcher interface {
	FetchAll(ctx context.Context) (domain.Dataset, error)
	FetchOne(ctx context.Context, itemID string) (json.RawMessage, bool, error)
}

type Options struct {
	Fetcher     Fetcher
	Store       domain.SnapshotStore
	SaveOnFetch bool
	Clock       func() time.Time
	Logger      *zap.Logger
	Metrics     domain.Metrics
}

// Surface implements the four tool operations. Each call runs exactly one
// fetcher or store operation and renders the result as JSON text.
type Surface struct {
	fetcher     Fetcher
	store       domain.SnapshotStore
	saveOnFetch bool
	clock       func() time.Time
	logger      *zap.Logger
	metrics     domain.Metrics
}

type errorPayload struct {
	Error string `json:"error"`
}

type timestampsPayload struct {
	Timestamps []string `json:"timestamps"`
}

func NewSurface(opts Options) (*Surface, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if opts.Store == nil {
		return nil, errors.New("snapshot store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	return &Surface{
		fetcher:     opts.Fetcher,
		store:       opts.Store,
		saveOnFetch: opts.SaveOnFetch,
		clock:       clock,
		logger:      logger.Named("tools"),
		metrics:     metrics,
	}, nil
}

// BazaarAll fetches the full feed, saves it as a snapshot when enabled, and
// returns it as JSON text.
func (s *Surface) BazaarAll(ctx context.Context) (string, error) {
	dataset, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		return "", err
	}
	if s.saveOnFetch {
		key, err := s.store.Save(ctx, dataset, s.clock())
		if err != nil {
			return "", fmt.Errorf("save snapshot: %w", err)
		}
		telemetry.LoggerWithRequest(ctx, s.logger).Debug("bazaar snapshot captured", zap.String(telemetry.FieldSnapshot, key))
	}
	return compactText(dataset)
}

// BazaarItem returns the record for itemID or the item-not-found marker.
func (s *Surface) BazaarItem(ctx context.Context, itemID string) (string, bool, error) {
	record, found, err := s.fetcher.FetchOne(ctx, itemID)
	if err != nil {
		return "", false, err
	}
	if !found {
		text, err := marshalText(errorPayload{Error: itemNotFoundMessage})
		return text, false, err
	}
	text, err := compactText(record)
	return text, true, err
}

// LoadSnapshot returns the stored snapshot for key. A missing snapshot is
// rendered as an error payload instead of failing the call.
func (s *Surface) LoadSnapshot(ctx context.Context, key string) (string, bool, error) {
	dataset, err := s.store.Load(ctx, key)
	if err != nil {
		if domain.IsNotFound(err) {
			text, mErr := marshalText(errorPayload{Error: err.Error()})
			return text, false, mErr
		}
		return "", false, err
	}
	text, err := compactText(dataset)
	return text, true, err
}

// ListSnapshots returns every snapshot key, oldest first.
func (s *Surface) ListSnapshots(ctx context.Context) (string, error) {
	keys, err := s.store.ListKeys(ctx)
	if err != nil {
		return "", err
	}
	if keys == nil {
		keys = []string{}
	}
	return marshalText(timestampsPayload{Timestamps: keys})
}

func compactText(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return buf.String(), nil
}

func marshalText(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
