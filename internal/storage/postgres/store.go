package postgres

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"ticketHub/internal/model"
)

// Schema creates the tables the store writes to. Ledger integers are uint64
// and are kept as NUMERIC(20, 0) so values above MaxInt64 survive.
const Schema = `
CREATE TABLE IF NOT EXISTS catalog_events (
	chain_id        NUMERIC(20, 0) NOT NULL,
	contract        TEXT           NOT NULL,
	event_id        TEXT           NOT NULL,
	record_id       NUMERIC(20, 0) NOT NULL DEFAULT 0,
	title           TEXT           NOT NULL,
	description     TEXT           NOT NULL DEFAULT '',
	image_ref       TEXT           NOT NULL DEFAULT '',
	start_ts        NUMERIC(20, 0) NOT NULL DEFAULT 0,
	display_price   TEXT           NOT NULL DEFAULT '',
	raw_price       NUMERIC(78, 0),
	available_count NUMERIC(20, 0) NOT NULL DEFAULT 0,
	organizer_ref   TEXT           NOT NULL DEFAULT '',
	category        TEXT           NOT NULL DEFAULT '',
	featured        BOOLEAN        NOT NULL DEFAULT false,
	provenance      TEXT           NOT NULL,
	created_at      TIMESTAMPTZ    NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ    NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, contract, event_id)
);

CREATE TABLE IF NOT EXISTS flow_outcomes (
	id          BIGSERIAL      PRIMARY KEY,
	kind        TEXT           NOT NULL,
	state       TEXT           NOT NULL,
	chain_id    NUMERIC(20, 0) NOT NULL,
	contract    TEXT           NOT NULL,
	account     TEXT           NOT NULL DEFAULT '',
	tx_hash     TEXT           NOT NULL DEFAULT '',
	event_id    NUMERIC(20, 0) NOT NULL DEFAULT 0,
	quantity    NUMERIC(20, 0) NOT NULL DEFAULT 0,
	total_value NUMERIC(78, 0),
	result_id   NUMERIC(20, 0) NOT NULL DEFAULT 0,
	image       TEXT           NOT NULL DEFAULT '',
	reason      TEXT           NOT NULL DEFAULT '',
	title       TEXT           NOT NULL DEFAULT '',
	description TEXT           NOT NULL DEFAULT '',
	finished_at TIMESTAMPTZ    NOT NULL
);
`

// Store provides Postgres persistence for catalog snapshots and flow outcomes.
type Store struct {
	pool     *pgxpool.Pool
	chainID  uint64
	contract string
}

func NewStore(ctx context.Context, dsn string, chainID uint64, contract string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, chainID: chainID, contract: contract}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutCatalogEvents upserts a catalog snapshot keyed by chain, contract and
// catalog id.
func (s *Store) PutCatalogEvents(ctx context.Context, events []model.CatalogEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(`
			INSERT INTO catalog_events (
				chain_id, contract, event_id, record_id, title, description, image_ref, start_ts,
				display_price, raw_price, available_count, organizer_ref, category, featured,
				provenance, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())
			ON CONFLICT (chain_id, contract, event_id)
			DO UPDATE SET
				record_id = EXCLUDED.record_id,
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				image_ref = EXCLUDED.image_ref,
				start_ts = EXCLUDED.start_ts,
				display_price = EXCLUDED.display_price,
				raw_price = EXCLUDED.raw_price,
				available_count = EXCLUDED.available_count,
				organizer_ref = EXCLUDED.organizer_ref,
				category = EXCLUDED.category,
				featured = EXCLUDED.featured,
				provenance = EXCLUDED.provenance,
				updated_at = now()
		`,
			unsigned(s.chainID),
			s.contract,
			e.ID,
			unsigned(e.RecordID),
			e.Title,
			e.Description,
			e.ImageRef,
			unsigned(e.StartTimestamp),
			e.DisplayPrice,
			numeric(e.RawPrice),
			unsigned(e.AvailableCount),
			e.OrganizerRef,
			e.Category,
			e.Featured,
			string(e.Provenance),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert catalog event: %w", err)
		}
	}
	return nil
}

// PutOutcomeBatch inserts flow outcome records.
func (s *Store) PutOutcomeBatch(ctx context.Context, records []model.OutcomeRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		finished, err := time.Parse(time.RFC3339, r.FinishedAt)
		if err != nil {
			finished = time.Now().UTC()
		}
		var total *big.Int
		if r.TotalValue != "" {
			parsed, ok := new(big.Int).SetString(r.TotalValue, 10)
			if !ok {
				return fmt.Errorf("outcome %s: invalid total value %q", r.TxHash, r.TotalValue)
			}
			total = parsed
		}
		batch.Queue(`
			INSERT INTO flow_outcomes (
				kind, state, chain_id, contract, account, tx_hash, event_id, quantity,
				total_value, result_id, image, reason, title, description, finished_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`,
			r.Kind,
			r.State,
			unsigned(r.ChainID),
			r.Contract,
			r.Account,
			r.TxHash,
			unsigned(r.EventID),
			unsigned(r.Quantity),
			numeric(total),
			unsigned(r.ResultID),
			r.Image,
			r.Reason,
			r.Title,
			r.Description,
			finished,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert outcome: %w", err)
		}
	}
	return nil
}

// unsigned stores a uint64 without the sign flip of an int64 conversion.
func unsigned(v uint64) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).SetUint64(v), Valid: true}
}

// numeric maps a nil amount to SQL NULL.
func numeric(v *big.Int) pgtype.Numeric {
	if v == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: new(big.Int).Set(v), Valid: true}
}
