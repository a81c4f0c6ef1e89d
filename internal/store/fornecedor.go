package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type FornecedorStore struct {
	db *sqlx.DB
}

var fornecedorOrderings = map[string]string{
	"valor_total": "valor_total DESC",
	"nome":        "nome ASC",
}

func (fs *FornecedorStore) Upsert(ctx context.Context, fornecedor *Fornecedor) error {
	query := `INSERT INTO fornecedores (
		nome,
		cnpj,
		valor_total,
		qtd_contratos,
		atualizado_em
	) VALUES (
		:nome,
		:cnpj,
		:valor_total,
		:qtd_contratos,
		NOW()
	)
	ON CONFLICT (nome) DO UPDATE SET
		cnpj = EXCLUDED.cnpj,
		valor_total = EXCLUDED.valor_total,
		qtd_contratos = EXCLUDED.qtd_contratos,
		atualizado_em = NOW()`

	_, err := fs.db.NamedExecContext(ctx, query, fornecedor)
	return err
}

func (fs *FornecedorStore) List(ctx context.Context, opts ListOptions) ([]Fornecedor, error) {
	order, ok := fornecedorOrderings[opts.OrderBy]
	if !ok {
		order = fornecedorOrderings["valor_total"]
	}
	query := fmt.Sprintf(`SELECT * FROM fornecedores ORDER BY %s LIMIT $1 OFFSET $2`, order)

	fornecedores := []Fornecedor{}
	err := fs.db.SelectContext(ctx, &fornecedores, query, pageLimit(opts.Limit), opts.Offset)
	return fornecedores, err
}

func (fs *FornecedorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := fs.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM fornecedores`)
	return count, err
}

func (fs *FornecedorStore) Total(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := fs.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(valor_total), 0) FROM fornecedores`)
	return total, err
}
