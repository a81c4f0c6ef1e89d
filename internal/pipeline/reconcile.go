package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/connector"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/normalize"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// Source tags stamped on reconciled rows. A natural key never collides
// across sources: the tag is part of every upsert key.
const (
	FonteLegacy     = "legacy_snapshot"
	FontePrefeitura = "prefeitura_ts"
	FonteCamara     = "camara_ts"
	FonteTCE        = "tce_rn"
	FonteContexto   = "contexto"
)

func (p *Pipeline) reconcileReceitas(ctx context.Context, fonte, endpoint string, ano int, recs []connector.Record[connector.ReceitaRow]) (int, error) {
	const component = "pipeline.receitas"

	previsao := decimal.Zero
	arrecadacao := decimal.Zero
	processed := 0
	for _, rec := range recs {
		if rec.Row.Exercicio != 0 && rec.Row.Exercicio != ano {
			continue
		}
		previsao = previsao.Add(rec.Row.PrevisaoAtualizada.Decimal)
		arrecadacao = arrecadacao.Add(rec.Row.Arrecadacao.Decimal)
		externalID := fmt.Sprintf("receita:%d:%s", ano, normalize.Text(rec.Row.Classificacao))
		if err := p.recordProvenance(ctx, "receita_resumo", externalID, fonte, endpoint, rec.Raw); err != nil {
			return processed, err
		}
		processed++
	}
	if processed == 0 {
		p.logger.Warn(component, "nenhuma linha de receita para %d", ano)
		return 0, nil
	}
	err := p.storage.Financas.UpsertReceita(ctx, &store.ReceitaResumo{
		Ano:                ano,
		PrevisaoAtualizada: previsao,
		Arrecadacao:        arrecadacao,
	})
	if err != nil {
		return processed, err
	}
	p.logger.Info(component, "receita %d consolidada de %d linhas (previsao %s, arrecadacao %s)",
		ano, processed, previsao.StringFixed(2), arrecadacao.StringFixed(2))
	return processed, nil
}

func (p *Pipeline) reconcileDespesas(ctx context.Context, fonte, endpoint string, ano int, recs []connector.Record[connector.DespesaRow]) (int, error) {
	const component = "pipeline.despesas"

	// Last row wins per unit: the portal repeats units across pages with
	// progressively consolidated figures.
	type despesaAcc struct {
		rec connector.Record[connector.DespesaRow]
	}
	order := []string{}
	porSecretaria := map[string]despesaAcc{}
	processed := 0
	for _, rec := range recs {
		if rec.Row.Exercicio != ano {
			continue
		}
		nome := normalize.Text(rec.Row.Unidade)
		if nome == "" {
			continue
		}
		if _, seen := porSecretaria[nome]; !seen {
			order = append(order, nome)
		}
		porSecretaria[nome] = despesaAcc{rec: rec}
		processed++
	}

	for _, nome := range order {
		rec := porSecretaria[nome].rec
		if _, err := p.storage.Secretarias.GetOrCreate(ctx, nome); err != nil {
			return processed, err
		}
		err := p.storage.Financas.UpsertDespesa(ctx, &store.DespesaSecretaria{
			Ano:        ano,
			Secretaria: nome,
			Orcado:     rec.Row.OrcadoAtualizado.Decimal,
			Empenhado:  rec.Row.Empenhado.Decimal,
			Liquidado:  rec.Row.Liquidado.Decimal,
			Pago:       rec.Row.Pago.Decimal,
		})
		if err != nil {
			return processed, err
		}
		externalID := fmt.Sprintf("despesa:%d:%s", ano, nome)
		if err := p.recordProvenance(ctx, "despesa_secretaria", externalID, fonte, endpoint, rec.Raw); err != nil {
			return processed, err
		}
	}
	p.logger.Info(component, "%d secretarias com execucao orcamentaria em %d", len(order), ano)
	return processed, nil
}

func (p *Pipeline) reconcileLicitacoes(ctx context.Context, fonte, endpoint string, ano int, recs []connector.Record[connector.LicitacaoRow]) (int, error) {
	const component = "pipeline.licitacoes"

	type licitacaoAcc struct {
		licitacao store.Licitacao
		raws      []connector.Record[connector.LicitacaoRow]
	}
	order := []string{}
	porCertame := map[string]*licitacaoAcc{}
	for _, rec := range recs {
		certame := normalize.Text(rec.Row.Certame.String())
		if certame == "" {
			continue
		}
		acc, seen := porCertame[certame]
		if !seen {
			acc = &licitacaoAcc{licitacao: store.Licitacao{
				Certame:    certame,
				Ano:        ano,
				Modalidade: rec.Row.Modalidade,
				Objeto:     rec.Row.Objeto,
				Situacao:   rec.Row.Situacao,
				Fonte:      fonte,
				Valor:      decimal.Zero,
			}}
			porCertame[certame] = acc
			order = append(order, certame)
		}
		if policyFor("licitacao") == PolicyAccumulate {
			acc.licitacao.Valor = acc.licitacao.Valor.Add(rec.Row.ValorTotal.Decimal)
		} else {
			acc.licitacao.Valor = rec.Row.ValorTotal.Decimal
		}
		acc.raws = append(acc.raws, rec)
	}

	processed := 0
	for _, certame := range order {
		acc := porCertame[certame]
		if err := p.storage.Licitacoes.Upsert(ctx, &acc.licitacao); err != nil {
			return processed, err
		}
		for _, rec := range acc.raws {
			externalID := fmt.Sprintf("licitacao:%s:%s", fonte, certame)
			if err := p.recordProvenance(ctx, "licitacao", externalID, fonte, endpoint, rec.Raw); err != nil {
				return processed, err
			}
			processed++
		}
	}
	p.logger.Info(component, "%d linhas consolidadas em %d certames (%s)", processed, len(order), fonte)
	return processed, nil
}

func (p *Pipeline) reconcileContratos(ctx context.Context, fonte, endpoint string, ano int, recs []connector.Record[connector.ContratoRow]) (int, error) {
	const component = "pipeline.contratos"

	processed := 0
	for _, rec := range recs {
		numero := normalize.Text(rec.Row.Numero.String())
		empresa := normalize.Text(rec.Row.Empresa)
		if numero == "" && empresa == "" {
			continue
		}
		contrato := &store.Contrato{
			Numero:     numero,
			Ano:        ano,
			Empresa:    empresa,
			CNPJ:       normalize.CNPJ(rec.Row.CNPJ.String()),
			Modalidade: rec.Row.Modalidade,
			Objeto:     rec.Row.Objeto,
			Valor:      rec.Row.Valor.Decimal,
			Fonte:      fonte,
			Ativo:      true,
		}
		if err := p.storage.Contratos.Upsert(ctx, contrato); err != nil {
			return processed, err
		}
		externalID := fmt.Sprintf("contrato:%s:%s:%s", fonte, numero, empresa)
		if err := p.recordProvenance(ctx, "contrato", externalID, fonte, endpoint, rec.Raw); err != nil {
			return processed, err
		}
		processed++
	}
	p.logger.Info(component, "%d contratos reconciliados (%s)", processed, fonte)
	return processed, nil
}

// recomputeFornecedores rebuilds supplier aggregates from the full
// contract table. Totals are replaced, never incremented, so reloading
// the same contracts leaves them unchanged.
func (p *Pipeline) recomputeFornecedores(ctx context.Context) (int, error) {
	const component = "pipeline.fornecedores"

	type fornecedorAcc struct {
		fornecedor store.Fornecedor
	}
	order := []string{}
	porChave := map[string]*fornecedorAcc{}

	offset := 0
	for {
		contratos, err := p.storage.Contratos.List(ctx, store.ListOptions{Limit: 500, Offset: offset})
		if err != nil {
			return 0, err
		}
		for _, contrato := range contratos {
			chave := normalize.FornecedorKey(contrato.Empresa, contrato.CNPJ)
			acc, seen := porChave[chave]
			if !seen {
				acc = &fornecedorAcc{fornecedor: store.Fornecedor{
					Nome: contrato.Empresa,
					CNPJ: contrato.CNPJ,
				}}
				porChave[chave] = acc
				order = append(order, chave)
			}
			acc.fornecedor.ValorTotal = acc.fornecedor.ValorTotal.Add(contrato.Valor)
			acc.fornecedor.QtdContratos++
			if acc.fornecedor.CNPJ == "" && contrato.CNPJ != "" {
				acc.fornecedor.CNPJ = contrato.CNPJ
			}
		}
		if len(contratos) < 500 {
			break
		}
		offset += len(contratos)
	}

	for _, chave := range order {
		if err := p.storage.Fornecedores.Upsert(ctx, &porChave[chave].fornecedor); err != nil {
			return len(order), err
		}
	}
	p.logger.Info(component, "%d fornecedores agregados", len(order))
	return len(order), nil
}

// servidorFromRow maps a raw payroll row onto the entity, cleaning the
// organ name and normalizing the identity fields.
func servidorFromRow(row connector.ServidorRow) store.Servidor {
	orgao := normalize.Text(normalize.Orgao(row.Orgao))
	competencia := normalize.DateISO(row.MesAno.String())
	if competencia == nil {
		competencia = normalize.DateBR(row.MesAno.String())
	}
	return store.Servidor{
		Matricula:          normalize.Text(row.Matricula.String()),
		Nome:               normalize.Text(row.Nome),
		Orgao:              orgao,
		Vinculo:            normalize.Text(row.Vinculo),
		Cargo:              row.Cargo,
		Funcao:             row.Funcao,
		CargaHoraria:       row.CargaHoraria.String(),
		RemuneracaoBruta:   row.RemuneracaoBruta.Decimal,
		RemuneracaoLiquida: row.RemuneracaoApos.Decimal,
		Competencia:        competencia,
	}
}

// reconcileServidores dedupes payroll rows by employee key. Under
// PolicyLatestWins a later competence date replaces an earlier one;
// undated rows lose to dated ones and ties keep the first seen. The
// table is then fully replaced.
func (p *Pipeline) reconcileServidores(ctx context.Context, fonte, endpoint string, recs []connector.Record[connector.ServidorRow]) (int, error) {
	const component = "pipeline.servidores"

	type servidorAcc struct {
		servidor store.Servidor
	}
	order := []string{}
	porChave := map[string]*servidorAcc{}
	processed := 0
	for _, rec := range recs {
		servidor := servidorFromRow(rec.Row)
		if servidor.Nome == "" {
			continue
		}
		chave := normalize.ServidorKey(servidor.Nome, servidor.Orgao, servidor.Vinculo, servidor.Matricula)
		if err := p.recordProvenance(ctx, "servidor", "servidor:"+chave, fonte, endpoint, rec.Raw); err != nil {
			return processed, err
		}
		processed++

		existing, seen := porChave[chave]
		if !seen {
			porChave[chave] = &servidorAcc{servidor: servidor}
			order = append(order, chave)
			continue
		}
		if policyFor("servidor") == PolicyLatestWins && newerCompetencia(servidor.Competencia, existing.servidor.Competencia) {
			existing.servidor = servidor
		}
	}

	servidores := make([]store.Servidor, 0, len(order))
	orgaos := map[string]bool{}
	for _, chave := range order {
		servidor := porChave[chave].servidor
		servidores = append(servidores, servidor)
		if servidor.Orgao != "" && !orgaos[servidor.Orgao] {
			orgaos[servidor.Orgao] = true
			if _, err := p.storage.Secretarias.GetOrCreate(ctx, servidor.Orgao); err != nil {
				return processed, err
			}
		}
	}
	if err := p.storage.Servidores.ReplaceAll(ctx, servidores); err != nil {
		return processed, err
	}
	p.logger.Info(component, "%d linhas de folha consolidadas em %d servidores (%s)", processed, len(servidores), fonte)
	return processed, nil
}

// newerCompetencia reports whether candidate strictly postdates current.
func newerCompetencia(candidate, current *time.Time) bool {
	if candidate == nil {
		return false
	}
	if current == nil {
		return true
	}
	return candidate.After(*current)
}

func (p *Pipeline) reconcileEmendas(ctx context.Context, fonte, endpoint string, recs []connector.Record[connector.EmendaRow]) (int, error) {
	const component = "pipeline.emendas"

	emendas := make([]store.Emenda, 0, len(recs))
	for _, rec := range recs {
		row := rec.Row
		emendas = append(emendas, store.Emenda{
			Numero:        row.Numero.String(),
			Ano:           row.Ano,
			Autoria:       row.Autoria,
			Tipo:          row.Tipo,
			OrigemRecurso: row.OrigemRecurso,
			Objeto:        row.Objeto,
			FuncaoGoverno: row.FuncaoGoverno,
			Beneficiario:  row.Beneficiario,
			Unidade:       row.Unidade,
			ValorPrevisto: row.ValorPrevisto.Decimal,
			Empenhado:     row.Empenhado.Decimal,
			Liquidado:     row.Liquidado.Decimal,
			Pago:          row.Pago.Decimal,
			Data:          normalize.DateISO(row.Data.String()),
		})
		externalID := fmt.Sprintf("emenda:%s/%d", row.Numero, row.Ano)
		if err := p.recordProvenance(ctx, "emenda", externalID, fonte, endpoint, rec.Raw); err != nil {
			return 0, err
		}
	}
	if err := p.storage.Financas.ReplaceEmendas(ctx, emendas); err != nil {
		return len(emendas), err
	}
	p.logger.Info(component, "%d emendas carregadas (substituicao completa)", len(emendas))
	return len(emendas), nil
}

func (p *Pipeline) reconcileOrcamento(ctx context.Context, fonte, endpoint string, recs []connector.Record[connector.OrcamentoRow]) (int, error) {
	const component = "pipeline.orcamento"

	itens := make([]store.OrcamentoItem, 0, len(recs))
	for _, rec := range recs {
		row := rec.Row
		itens = append(itens, store.OrcamentoItem{
			Exercicio:       row.Exercicio,
			CodigoOrgao:     row.CodigoOrgao.String(),
			Unidade:         normalize.Text(row.Unidade),
			Acao:            row.Acao,
			Funcao:          row.Funcao,
			SubFuncao:       row.SubFuncao,
			NaturezaDespesa: row.NaturezaDespesa.String(),
			ElementoDespesa: row.ElementoDespesa,
			FonteRecurso:    row.FonteRecurso,
			ValorInicial:    row.ValorInicial.Decimal,
			ValorAtualizado: row.ValorAtualizado.Decimal,
			ValorDisponivel: row.ValorDisponivel.Decimal,
		})
		externalID := fmt.Sprintf("orcamento:%d:%s:%s", row.Exercicio, row.CodigoOrgao, row.Acao)
		if err := p.recordProvenance(ctx, "orcamento_item", externalID, fonte, endpoint, rec.Raw); err != nil {
			return 0, err
		}
	}
	if err := p.storage.Financas.ReplaceOrcamento(ctx, itens); err != nil {
		return len(itens), err
	}
	p.logger.Info(component, "%d dotacoes orcamentarias carregadas (substituicao completa)", len(itens))
	return len(itens), nil
}
