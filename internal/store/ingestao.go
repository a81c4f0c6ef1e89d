package store

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type SyncRunStore struct {
	db *sqlx.DB
}

func (sr *SyncRunStore) Insert(ctx context.Context, run *SyncRun) error {
	query := `INSERT INTO sync_runs (uuid, fonte, status, iniciado_em, registros, erros, mensagem)
		VALUES (:uuid, :fonte, :status, :iniciado_em, :registros, :erros, :mensagem)
		RETURNING id`

	rows, err := sr.db.NamedQueryContext(ctx, query, run)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&run.ID)
	}
	return rows.Err()
}

func (sr *SyncRunStore) Update(ctx context.Context, run *SyncRun) error {
	query := `UPDATE sync_runs SET
		status = :status,
		finalizado_em = :finalizado_em,
		registros = :registros,
		erros = :erros,
		mensagem = :mensagem
	WHERE id = :id`

	_, err := sr.db.NamedExecContext(ctx, query, run)
	return err
}

func (sr *SyncRunStore) List(ctx context.Context, limit int) ([]SyncRun, error) {
	runs := []SyncRun{}
	err := sr.db.SelectContext(ctx, &runs,
		`SELECT * FROM sync_runs ORDER BY iniciado_em DESC LIMIT $1`, pageLimit(limit))
	return runs, err
}

// SweepStuck closes runs stuck in 'executando' since before olderThan.
// Running it twice is harmless: the first pass leaves nothing matching.
func (sr *SyncRunStore) SweepStuck(ctx context.Context, olderThan time.Time, mensagem string) (int, error) {
	result, err := sr.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = $1, finalizado_em = NOW(), mensagem = $2
		WHERE status = $3 AND iniciado_em < $4`,
		RunErro, mensagem, RunExecutando, olderThan)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

type ProvenanceStore struct {
	db *sqlx.DB
}

// Record inserts a provenance row, reporting false when the content hash
// was already registered. The unique index on hash is the idempotence
// fence for the whole pipeline.
func (ps *ProvenanceStore) Record(ctx context.Context, prov *DataProvenance) (bool, error) {
	query := `INSERT INTO data_provenance (entidade, external_id, fonte, endpoint, hash, versao, coletado_em)
		VALUES (:entidade, :external_id, :fonte, :endpoint, :hash, :versao, :coletado_em)`

	_, err := ps.db.NamedExecContext(ctx, query, prov)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (ps *ProvenanceStore) List(ctx context.Context, limit int) ([]DataProvenance, error) {
	rows := []DataProvenance{}
	err := ps.db.SelectContext(ctx, &rows,
		`SELECT * FROM data_provenance ORDER BY coletado_em DESC, id DESC LIMIT $1`, pageLimit(limit))
	return rows, err
}

func (ps *ProvenanceStore) Count(ctx context.Context) (int, error) {
	var count int
	err := ps.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM data_provenance`)
	return count, err
}
