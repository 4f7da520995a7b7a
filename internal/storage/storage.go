package storage

import (
	"context"
	"errors"

	"ticketHub/internal/model"
)

// Storage is a sink for flow outcome records.
type Storage interface {
	PutOutcomeBatch(ctx context.Context, records []model.OutcomeRecord) error
}

// CatalogSink receives catalog snapshots.
type CatalogSink interface {
	PutCatalogEvents(ctx context.Context, events []model.CatalogEvent) error
}

// Multi writes every batch to each sink and joins their errors.
type Multi []Storage

func (m Multi) PutOutcomeBatch(ctx context.Context, records []model.OutcomeRecord) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.PutOutcomeBatch(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
