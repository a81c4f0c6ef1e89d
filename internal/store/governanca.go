package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type SecretariaStore struct {
	db *sqlx.DB
}

func (ss *SecretariaStore) GetOrCreate(ctx context.Context, nome string) (*Secretaria, error) {
	query := `INSERT INTO secretarias (nome, gestor, atualizado_em)
		VALUES ($1, '', NOW())
		ON CONFLICT (nome) DO UPDATE SET nome = EXCLUDED.nome
		RETURNING *`

	var secretaria Secretaria
	if err := ss.db.GetContext(ctx, &secretaria, query, nome); err != nil {
		return nil, err
	}
	return &secretaria, nil
}

func (ss *SecretariaStore) SetGestor(ctx context.Context, nome, gestor string) error {
	query := `INSERT INTO secretarias (nome, gestor, atualizado_em)
		VALUES ($1, $2, NOW())
		ON CONFLICT (nome) DO UPDATE SET gestor = EXCLUDED.gestor, atualizado_em = NOW()`

	_, err := ss.db.ExecContext(ctx, query, nome, gestor)
	return err
}

func (ss *SecretariaStore) List(ctx context.Context) ([]Secretaria, error) {
	secretarias := []Secretaria{}
	err := ss.db.SelectContext(ctx, &secretarias, `SELECT * FROM secretarias ORDER BY nome ASC`)
	return secretarias, err
}

type VereadorStore struct {
	db *sqlx.DB
}

func (vs *VereadorStore) Upsert(ctx context.Context, vereador *Vereador) error {
	query := `INSERT INTO vereadores (nome, partido, cargo, mandato)
		VALUES (:nome, :partido, :cargo, :mandato)
		ON CONFLICT (nome) DO UPDATE SET
			partido = EXCLUDED.partido,
			cargo = EXCLUDED.cargo,
			mandato = EXCLUDED.mandato`

	_, err := vs.db.NamedExecContext(ctx, query, vereador)
	return err
}

func (vs *VereadorStore) List(ctx context.Context) ([]Vereador, error) {
	vereadores := []Vereador{}
	err := vs.db.SelectContext(ctx, &vereadores, `SELECT * FROM vereadores ORDER BY nome ASC`)
	return vereadores, err
}

func (vs *VereadorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := vs.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM vereadores`)
	return count, err
}
