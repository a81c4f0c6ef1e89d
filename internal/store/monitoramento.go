package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type AlertaStore struct {
	db *sqlx.DB
}

// ReplaceAll swaps the full alert set atomically. The risk engine owns
// the table contents; stale alerts from a previous scan must not
// survive.
func (as *AlertaStore) ReplaceAll(ctx context.Context, alertas []Alerta) error {
	tx, err := as.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alertas`); err != nil {
		return err
	}
	if len(alertas) > 0 {
		query := `INSERT INTO alertas (codigo, titulo, descricao, severidade, criado_em)
			VALUES (:codigo, :titulo, :descricao, :severidade, :criado_em)`
		if _, err := tx.NamedExecContext(ctx, query, alertas); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (as *AlertaStore) Insert(ctx context.Context, alerta *Alerta) error {
	query := `INSERT INTO alertas (codigo, titulo, descricao, severidade, criado_em)
		VALUES (:codigo, :titulo, :descricao, :severidade, :criado_em)`

	_, err := as.db.NamedExecContext(ctx, query, alerta)
	return err
}

func (as *AlertaStore) List(ctx context.Context, limit int) ([]Alerta, error) {
	alertas := []Alerta{}
	err := as.db.SelectContext(ctx, &alertas,
		`SELECT * FROM alertas ORDER BY criado_em DESC, id DESC LIMIT $1`, pageLimit(limit))
	return alertas, err
}
