package coding

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vascintake/vascintake/internal/platform/db"
)

type catalogRepoPG struct{ pool *pgxpool.Pool }

// NewCatalogRepoPG returns a CatalogRepository backed by the coding_icd10
// and coding_cpt tables.
func NewCatalogRepoPG(pool *pgxpool.Pool) CatalogRepository { return &catalogRepoPG{pool: pool} }

func (r *catalogRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *catalogRepoPG) ListDiagnoses(ctx context.Context) ([]DiagnosisCodeEntry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT code, description, category, COALESCE(laterality,'') AS laterality
		 FROM coding_icd10 ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("icd10 list: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[DiagnosisCodeEntry])
	if err != nil {
		return nil, fmt.Errorf("icd10 scan: %w", err)
	}
	return out, nil
}

func (r *catalogRepoPG) ListProcedures(ctx context.Context) ([]ProcedureCodeEntry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT code, description, category, rvu::float8 AS rvu
		 FROM coding_cpt ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("cpt list: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[ProcedureCodeEntry])
	if err != nil {
		return nil, fmt.Errorf("cpt scan: %w", err)
	}
	return out, nil
}

func (r *catalogRepoPG) UpsertDiagnoses(ctx context.Context, entries []DiagnosisCodeEntry) (int, error) {
	batch := &pgx.Batch{}
	for _, d := range entries {
		batch.Queue(
			`INSERT INTO coding_icd10 (code, description, category, laterality)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (code) DO UPDATE SET
			   description = EXCLUDED.description,
			   category = EXCLUDED.category,
			   laterality = EXCLUDED.laterality,
			   updated_at = NOW()`,
			d.Code, d.Description, d.Category, string(d.Laterality))
	}
	if err := r.sendBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("icd10 upsert: %w", err)
	}
	return len(entries), nil
}

func (r *catalogRepoPG) UpsertProcedures(ctx context.Context, entries []ProcedureCodeEntry) (int, error) {
	batch := &pgx.Batch{}
	for _, p := range entries {
		batch.Queue(
			`INSERT INTO coding_cpt (code, description, category, rvu)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (code) DO UPDATE SET
			   description = EXCLUDED.description,
			   category = EXCLUDED.category,
			   rvu = EXCLUDED.rvu,
			   updated_at = NOW()`,
			p.Code, p.Description, p.Category, p.RVU)
	}
	if err := r.sendBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("cpt upsert: %w", err)
	}
	return len(entries), nil
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (r *catalogRepoPG) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	var sender batchSender = r.pool
	if tx := db.TxFromContext(ctx); tx != nil {
		sender = tx
	}
	return sender.SendBatch(ctx, batch).Close()
}
