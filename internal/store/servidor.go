package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Bulk inserts go in chunks: the portals ship a few thousand payroll
// rows and a single statement with all of them blows the parameter
// limit.
const insertBatchSize = 500

type ServidorStore struct {
	db *sqlx.DB
}

var servidorOrderings = map[string]string{
	"nome":              "nome ASC",
	"remuneracao_bruta": "remuneracao_bruta DESC",
	"orgao":             "orgao ASC, nome ASC",
}

func (ss *ServidorStore) ReplaceAll(ctx context.Context, servidores []Servidor) error {
	tx, err := ss.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM servidores`); err != nil {
		return err
	}

	query := `INSERT INTO servidores (
		matricula,
		nome,
		orgao,
		vinculo,
		cargo,
		funcao,
		carga_horaria,
		remuneracao_bruta,
		remuneracao_liquida,
		competencia
	) VALUES (
		:matricula,
		:nome,
		:orgao,
		:vinculo,
		:cargo,
		:funcao,
		:carga_horaria,
		:remuneracao_bruta,
		:remuneracao_liquida,
		:competencia
	)`

	for start := 0; start < len(servidores); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(servidores) {
			end = len(servidores)
		}
		if _, err := tx.NamedExecContext(ctx, query, servidores[start:end]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (ss *ServidorStore) List(ctx context.Context, opts ListOptions) ([]Servidor, error) {
	order, ok := servidorOrderings[opts.OrderBy]
	if !ok {
		order = servidorOrderings["nome"]
	}
	query := fmt.Sprintf(`SELECT * FROM servidores ORDER BY %s LIMIT $1 OFFSET $2`, order)

	servidores := []Servidor{}
	err := ss.db.SelectContext(ctx, &servidores, query, pageLimit(opts.Limit), opts.Offset)
	return servidores, err
}

func (ss *ServidorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := ss.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM servidores`)
	return count, err
}

func (ss *ServidorStore) CountBrutoZero(ctx context.Context) (int, error) {
	var count int
	err := ss.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM servidores WHERE remuneracao_bruta = 0`)
	return count, err
}

func (ss *ServidorStore) Vinculos(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Vinculo string `db:"vinculo"`
		Total   int    `db:"total"`
	}{}
	err := ss.db.SelectContext(ctx, &rows,
		`SELECT vinculo, COUNT(*) AS total FROM servidores GROUP BY vinculo`)
	if err != nil {
		return nil, err
	}
	vinculos := make(map[string]int, len(rows))
	for _, row := range rows {
		vinculos[row.Vinculo] = row.Total
	}
	return vinculos, nil
}
