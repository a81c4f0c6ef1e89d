package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type AdminStore struct {
	db *sqlx.DB
}

// TruncateReconciled wipes every reconciled table plus provenance, in
// dependency order. Sync history and alerts survive: they are the
// operational record of the runs themselves.
func (as *AdminStore) TruncateReconciled(ctx context.Context) error {
	tables := []string{
		"data_provenance",
		"servidores",
		"fornecedores",
		"contratos",
		"licitacoes",
		"emendas",
		"orcamento_itens",
		"despesas_secretaria",
		"receitas_resumo",
		"secretarias",
		"vereadores",
	}
	tx, err := as.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (as *AdminStore) EnsureAccessProfiles(ctx context.Context, profiles []AccessProfile) (int, error) {
	query := `INSERT INTO access_profiles (nome, descricao, permissoes)
		VALUES (:nome, :descricao, :permissoes)
		ON CONFLICT (nome) DO UPDATE SET
			descricao = EXCLUDED.descricao,
			permissoes = EXCLUDED.permissoes`

	for i := range profiles {
		if _, err := as.db.NamedExecContext(ctx, query, &profiles[i]); err != nil {
			return i, err
		}
	}
	return len(profiles), nil
}

func (as *AdminStore) ListAccessProfiles(ctx context.Context) ([]AccessProfile, error) {
	profiles := []AccessProfile{}
	err := as.db.SelectContext(ctx, &profiles, `SELECT * FROM access_profiles ORDER BY nome ASC`)
	return profiles, err
}
