package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type ContratoStore struct {
	db *sqlx.DB
}

var contratoOrderings = map[string]string{
	"valor":   "valor DESC",
	"numero":  "numero ASC",
	"empresa": "empresa ASC, valor DESC",
	"ano":     "ano DESC, valor DESC",
}

func (cs *ContratoStore) Upsert(ctx context.Context, contrato *Contrato) error {
	query := `INSERT INTO contratos (
		numero,
		ano,
		empresa,
		cnpj,
		modalidade,
		objeto,
		valor,
		fonte,
		inicio_vigencia,
		fim_vigencia,
		assinatura,
		ativo,
		atualizado_em
	) VALUES (
		:numero,
		:ano,
		:empresa,
		:cnpj,
		:modalidade,
		:objeto,
		:valor,
		:fonte,
		:inicio_vigencia,
		:fim_vigencia,
		:assinatura,
		:ativo,
		NOW()
	)
	ON CONFLICT (numero, empresa, fonte) DO UPDATE SET
		ano = EXCLUDED.ano,
		cnpj = EXCLUDED.cnpj,
		modalidade = EXCLUDED.modalidade,
		objeto = EXCLUDED.objeto,
		valor = EXCLUDED.valor,
		inicio_vigencia = EXCLUDED.inicio_vigencia,
		fim_vigencia = EXCLUDED.fim_vigencia,
		assinatura = EXCLUDED.assinatura,
		ativo = EXCLUDED.ativo,
		atualizado_em = NOW()`

	_, err := cs.db.NamedExecContext(ctx, query, contrato)
	return err
}

func (cs *ContratoStore) List(ctx context.Context, opts ListOptions) ([]Contrato, error) {
	order, ok := contratoOrderings[opts.OrderBy]
	if !ok {
		order = contratoOrderings["valor"]
	}
	query := fmt.Sprintf(`SELECT * FROM contratos ORDER BY %s LIMIT $1 OFFSET $2`, order)

	contratos := []Contrato{}
	err := cs.db.SelectContext(ctx, &contratos, query, pageLimit(opts.Limit), opts.Offset)
	return contratos, err
}

func (cs *ContratoStore) Count(ctx context.Context) (int, error) {
	var count int
	err := cs.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM contratos`)
	return count, err
}

func (cs *ContratoStore) CountSemCNPJ(ctx context.Context) (int, error) {
	var count int
	err := cs.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM contratos WHERE cnpj = ''`)
	return count, err
}

func (cs *ContratoStore) Valores(ctx context.Context) ([]decimal.Decimal, error) {
	valores := []decimal.Decimal{}
	err := cs.db.SelectContext(ctx, &valores, `SELECT valor FROM contratos`)
	return valores, err
}

func (cs *ContratoStore) Total(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := cs.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(valor), 0) FROM contratos`)
	return total, err
}
