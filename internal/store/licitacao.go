package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type LicitacaoStore struct {
	db *sqlx.DB
}

var licitacaoOrderings = map[string]string{
	"valor":    "valor DESC",
	"certame":  "certame ASC",
	"ano":      "ano DESC, valor DESC",
	"situacao": "situacao ASC, valor DESC",
}

func (ls *LicitacaoStore) Upsert(ctx context.Context, licitacao *Licitacao) error {
	query := `INSERT INTO licitacoes (
		certame,
		ano,
		modalidade,
		objeto,
		situacao,
		tipo_objeto,
		valor,
		fonte,
		data_publicacao,
		link_edital,
		atualizado_em
	) VALUES (
		:certame,
		:ano,
		:modalidade,
		:objeto,
		:situacao,
		:tipo_objeto,
		:valor,
		:fonte,
		:data_publicacao,
		:link_edital,
		NOW()
	)
	ON CONFLICT (certame, fonte) DO UPDATE SET
		ano = EXCLUDED.ano,
		modalidade = EXCLUDED.modalidade,
		objeto = EXCLUDED.objeto,
		situacao = EXCLUDED.situacao,
		tipo_objeto = EXCLUDED.tipo_objeto,
		valor = EXCLUDED.valor,
		data_publicacao = EXCLUDED.data_publicacao,
		link_edital = EXCLUDED.link_edital,
		atualizado_em = NOW()`

	_, err := ls.db.NamedExecContext(ctx, query, licitacao)
	return err
}

func (ls *LicitacaoStore) List(ctx context.Context, opts ListOptions) ([]Licitacao, error) {
	order, ok := licitacaoOrderings[opts.OrderBy]
	if !ok {
		order = licitacaoOrderings["valor"]
	}
	query := fmt.Sprintf(`SELECT * FROM licitacoes ORDER BY %s LIMIT $1 OFFSET $2`, order)

	licitacoes := []Licitacao{}
	err := ls.db.SelectContext(ctx, &licitacoes, query, pageLimit(opts.Limit), opts.Offset)
	return licitacoes, err
}

func (ls *LicitacaoStore) Count(ctx context.Context) (int, error) {
	var count int
	err := ls.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM licitacoes`)
	return count, err
}

func (ls *LicitacaoStore) CountSituacaoContains(ctx context.Context, fragmento string) (int, error) {
	var count int
	err := ls.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM licitacoes WHERE situacao ILIKE '%' || $1 || '%'`, fragmento)
	return count, err
}

func (ls *LicitacaoStore) Total(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := ls.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(valor), 0) FROM licitacoes`)
	return total, err
}
