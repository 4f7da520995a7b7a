package catalog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ticketHub/internal/chain"
	"ticketHub/internal/model"
)

const (
	defaultConcurrency   = 8
	defaultMaxEvents     = 1000
	defaultChainCategory = "Blockchain"
)

// Source is the read side of the ticket contract.
type Source interface {
	NextID(ctx context.Context) (uint64, error)
	RecordAt(ctx context.Context, id uint64) (model.ChainEventRecord, error)
}

// Config controls how chain records are fetched and presented.
type Config struct {
	Concurrency int
	// FetchTimeout bounds the whole fan-out. Zero waits for every fetch.
	FetchTimeout time.Duration
	// MaxEvents caps how many ids one build fetches. When the contract
	// reports more, only the newest MaxEvents ids are read.
	MaxEvents     int
	Location      *time.Location
	ChainCategory string
}

// Stats counts what happened to each chain candidate.
type Stats struct {
	Candidates int `json:"candidates"`
	Included   int `json:"included"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Unresolved int `json:"unresolved"`
}

// Catalog is a merged event list.
type Catalog struct {
	Events []model.CatalogEvent
	Stats  Stats
}

// Aggregator merges the static catalog with live contract records.
type Aggregator struct {
	cfg    Config
	source Source
	logger *zap.Logger
}

func NewAggregator(cfg Config, source Source, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = defaultMaxEvents
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ChainCategory == "" {
		cfg.ChainCategory = defaultChainCategory
	}
	return &Aggregator{cfg: cfg, source: source, logger: logger}
}

type fetchOutcome int

const (
	fetchIncluded fetchOutcome = iota
	fetchSkipped
	fetchFailed
)

type fetchResult struct {
	slot    int
	outcome fetchOutcome
	event   model.CatalogEvent
}

// Build returns static events in their original order followed by live chain
// events in ascending id order. Chain problems never fail the build: an
// unreachable contract yields the static events alone.
func (a *Aggregator) Build(ctx context.Context, static []model.CatalogEvent) (Catalog, error) {
	out := Catalog{Events: make([]model.CatalogEvent, 0, len(static))}
	for _, event := range static {
		event.Provenance = model.ProvenanceLocal
		out.Events = append(out.Events, event)
	}
	if a.source == nil {
		return out, nil
	}

	next, err := a.source.NextID(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Catalog{}, ctx.Err()
		}
		a.logger.Warn("chain catalog unavailable", zap.Error(err))
		return out, nil
	}
	if next <= 1 {
		return out, nil
	}

	first, total := uint64(1), next-1
	if limit := uint64(a.cfg.MaxEvents); total > limit {
		a.logger.Warn("chain catalog truncated",
			zap.Uint64("next_event_id", next),
			zap.Int("max_events", a.cfg.MaxEvents),
		)
		first, total = next-limit, limit
	}
	count := int(total)
	out.Stats.Candidates = count

	fetchCtx, cancel := a.fetchContext(ctx)
	defer cancel()

	results := make(chan fetchResult, count)
	go a.fanOut(fetchCtx, first, count, results)

	slots := a.collect(fetchCtx, results, count, &out.Stats)
	if err := ctx.Err(); err != nil {
		return Catalog{}, err
	}
	if out.Stats.Unresolved > 0 {
		a.logger.Warn("chain catalog incomplete",
			zap.Int("unresolved", out.Stats.Unresolved),
			zap.Duration("timeout", a.cfg.FetchTimeout),
		)
	}

	for _, event := range slots {
		if event != nil {
			out.Events = append(out.Events, *event)
		}
	}

	a.logger.Info("catalog built",
		zap.Int("static", len(static)),
		zap.Int("candidates", out.Stats.Candidates),
		zap.Int("included", out.Stats.Included),
		zap.Int("skipped", out.Stats.Skipped),
		zap.Int("failed", out.Stats.Failed),
		zap.Int("unresolved", out.Stats.Unresolved),
	)
	return out, nil
}

func (a *Aggregator) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.FetchTimeout > 0 {
		return context.WithTimeout(ctx, a.cfg.FetchTimeout)
	}
	return context.WithCancel(ctx)
}

// collect gathers count results into id-ordered slots until all arrive or ctx
// ends. Results already buffered when ctx ends still count.
func (a *Aggregator) collect(ctx context.Context, results <-chan fetchResult, count int, stats *Stats) []*model.CatalogEvent {
	slots := make([]*model.CatalogEvent, count)
	received := 0
	take := func(res fetchResult) {
		received++
		switch res.outcome {
		case fetchIncluded:
			event := res.event
			slots[res.slot] = &event
			stats.Included++
		case fetchSkipped:
			stats.Skipped++
		case fetchFailed:
			stats.Failed++
		}
	}

wait:
	for received < count {
		select {
		case res := <-results:
			take(res)
		case <-ctx.Done():
			break wait
		}
	}
drain:
	for received < count {
		select {
		case res := <-results:
			take(res)
		default:
			break drain
		}
	}
	stats.Unresolved = count - received
	return slots
}

// fanOut runs one fetch per id with bounded parallelism. results is buffered
// for every id so workers never block once the collector stops reading.
func (a *Aggregator) fanOut(ctx context.Context, first uint64, count int, results chan<- fetchResult) {
	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)
	for slot := 0; slot < count; slot++ {
		if ctx.Err() != nil {
			break
		}
		slot := slot
		g.Go(func() error {
			results <- a.fetch(ctx, first, slot)
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Aggregator) fetch(ctx context.Context, first uint64, slot int) fetchResult {
	id := first + uint64(slot)
	rec, err := a.source.RecordAt(ctx, id)
	switch {
	case errors.Is(err, chain.ErrRecordNotFound):
		return fetchResult{slot: slot, outcome: fetchSkipped}
	case err != nil:
		a.logger.Warn("fetch chain event", zap.Uint64("event_id", id), zap.Error(err))
		return fetchResult{slot: slot, outcome: fetchFailed}
	case rec.Cancelled:
		return fetchResult{slot: slot, outcome: fetchSkipped}
	}
	return fetchResult{slot: slot, outcome: fetchIncluded, event: a.toCatalogEvent(rec)}
}

func (a *Aggregator) toCatalogEvent(rec model.ChainEventRecord) model.CatalogEvent {
	return model.CatalogEvent{
		ID:             model.ChainEventID(rec.ID),
		RecordID:       rec.ID,
		Title:          rec.Name,
		Description:    rec.Description,
		ImageRef:       rec.ImageURI,
		StartTimestamp: rec.Date,
		DisplayDate:    FormatDate(rec.Date, a.cfg.Location),
		DisplayTime:    FormatTime(rec.Date, a.cfg.Location),
		Location:       "On-chain",
		DisplayPrice:   FormatPrice(rec.PriceWei),
		RawPrice:       rec.PriceWei,
		AvailableCount: rec.Available(),
		OrganizerRef:   rec.Organiser.Hex(),
		Category:       a.cfg.ChainCategory,
		Provenance:     model.ProvenanceChain,
	}
}

