package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type FinancasStore struct {
	db *sqlx.DB
}

func (fs *FinancasStore) UpsertReceita(ctx context.Context, receita *ReceitaResumo) error {
	query := `INSERT INTO receitas_resumo (
		ano,
		previsao_atualizada,
		arrecadacao,
		atualizado_em
	) VALUES (
		:ano,
		:previsao_atualizada,
		:arrecadacao,
		NOW()
	)
	ON CONFLICT (ano) DO UPDATE SET
		previsao_atualizada = EXCLUDED.previsao_atualizada,
		arrecadacao = EXCLUDED.arrecadacao,
		atualizado_em = NOW()`

	_, err := fs.db.NamedExecContext(ctx, query, receita)
	return err
}

func (fs *FinancasStore) GetReceita(ctx context.Context, ano int) (*ReceitaResumo, error) {
	var receita ReceitaResumo
	err := fs.db.GetContext(ctx, &receita, `SELECT * FROM receitas_resumo WHERE ano = $1`, ano)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receita, nil
}

func (fs *FinancasStore) UpsertDespesa(ctx context.Context, despesa *DespesaSecretaria) error {
	query := `INSERT INTO despesas_secretaria (
		ano,
		secretaria,
		orcado,
		empenhado,
		liquidado,
		pago,
		atualizado_em
	) VALUES (
		:ano,
		:secretaria,
		:orcado,
		:empenhado,
		:liquidado,
		:pago,
		NOW()
	)
	ON CONFLICT (ano, secretaria) DO UPDATE SET
		orcado = EXCLUDED.orcado,
		empenhado = EXCLUDED.empenhado,
		liquidado = EXCLUDED.liquidado,
		pago = EXCLUDED.pago,
		atualizado_em = NOW()`

	_, err := fs.db.NamedExecContext(ctx, query, despesa)
	return err
}

func (fs *FinancasStore) ListDespesas(ctx context.Context, ano int) ([]DespesaSecretaria, error) {
	despesas := []DespesaSecretaria{}
	err := fs.db.SelectContext(ctx, &despesas,
		`SELECT * FROM despesas_secretaria WHERE ano = $1 ORDER BY empenhado DESC`, ano)
	return despesas, err
}

func (fs *FinancasStore) ReplaceEmendas(ctx context.Context, emendas []Emenda) error {
	tx, err := fs.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM emendas`); err != nil {
		return err
	}

	query := `INSERT INTO emendas (
		numero, ano, autoria, tipo, origem_recurso, objeto, funcao_governo,
		beneficiario, unidade, valor_previsto, empenhado, liquidado, pago, data
	) VALUES (
		:numero, :ano, :autoria, :tipo, :origem_recurso, :objeto, :funcao_governo,
		:beneficiario, :unidade, :valor_previsto, :empenhado, :liquidado, :pago, :data
	)`

	for start := 0; start < len(emendas); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(emendas) {
			end = len(emendas)
		}
		if _, err := tx.NamedExecContext(ctx, query, emendas[start:end]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (fs *FinancasStore) ListEmendas(ctx context.Context, opts ListOptions) ([]Emenda, error) {
	emendas := []Emenda{}
	err := fs.db.SelectContext(ctx, &emendas,
		`SELECT * FROM emendas ORDER BY valor_previsto DESC LIMIT $1 OFFSET $2`,
		pageLimit(opts.Limit), opts.Offset)
	return emendas, err
}

func (fs *FinancasStore) ReplaceOrcamento(ctx context.Context, itens []OrcamentoItem) error {
	tx, err := fs.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orcamento_itens`); err != nil {
		return err
	}

	query := `INSERT INTO orcamento_itens (
		exercicio, codigo_orgao, unidade, acao, funcao, sub_funcao,
		natureza_despesa, elemento_despesa, fonte_recurso,
		valor_inicial, valor_atualizado, valor_disponivel
	) VALUES (
		:exercicio, :codigo_orgao, :unidade, :acao, :funcao, :sub_funcao,
		:natureza_despesa, :elemento_despesa, :fonte_recurso,
		:valor_inicial, :valor_atualizado, :valor_disponivel
	)`

	for start := 0; start < len(itens); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(itens) {
			end = len(itens)
		}
		if _, err := tx.NamedExecContext(ctx, query, itens[start:end]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (fs *FinancasStore) ListOrcamento(ctx context.Context, opts ListOptions) ([]OrcamentoItem, error) {
	itens := []OrcamentoItem{}
	err := fs.db.SelectContext(ctx, &itens,
		`SELECT * FROM orcamento_itens ORDER BY valor_inicial DESC LIMIT $1 OFFSET $2`,
		pageLimit(opts.Limit), opts.Offset)
	return itens, err
}
