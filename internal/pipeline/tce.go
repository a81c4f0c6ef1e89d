package pipeline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/connector"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/normalize"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// reconcileTCELicitacoes consolidates the audit court's per-lot rows.
// Lots sharing (numeroLicitacao, anoLicitacao) become one notice whose
// value is the sum over the lots; descriptive fields come from the
// first lot seen.
func (p *Pipeline) reconcileTCELicitacoes(ctx context.Context, endpoint string, recs []connector.Record[connector.TCELicitacaoRow]) (int, error) {
	const component = "pipeline.tce"

	type licitacaoAcc struct {
		licitacao store.Licitacao
		raws      []connector.Record[connector.TCELicitacaoRow]
	}
	order := []string{}
	porCertame := map[string]*licitacaoAcc{}
	for _, rec := range recs {
		numero := normalize.Text(rec.Row.Numero.String())
		if numero == "" {
			continue
		}
		ano := normalize.Year(rec.Row.Ano.String())
		certame := numero
		if ano != 0 {
			certame = fmt.Sprintf("%s/%d", numero, ano)
		}
		acc, seen := porCertame[certame]
		if !seen {
			acc = &licitacaoAcc{licitacao: store.Licitacao{
				Certame:        certame,
				Ano:            ano,
				Modalidade:     rec.Row.Modalidade,
				Objeto:         rec.Row.Objeto,
				Situacao:       rec.Row.Situacao,
				TipoObjeto:     rec.Row.TipoObjeto,
				Fonte:          FonteTCE,
				DataPublicacao: normalize.DateISO(rec.Row.DataPublicacao.String()),
				LinkEdital:     rec.Row.LinkEdital,
				Valor:          decimal.Zero,
			}}
			porCertame[certame] = acc
			order = append(order, certame)
		}
		acc.licitacao.Valor = acc.licitacao.Valor.Add(rec.Row.ValorOrcado.Decimal)
		acc.raws = append(acc.raws, rec)
	}

	processed := 0
	for _, certame := range order {
		acc := porCertame[certame]
		if err := p.storage.Licitacoes.Upsert(ctx, &acc.licitacao); err != nil {
			return processed, err
		}
		for _, rec := range acc.raws {
			externalID := fmt.Sprintf("licitacao:%s:%s:lote:%s", FonteTCE, certame, rec.Row.NumeroLote)
			if err := p.recordProvenance(ctx, "licitacao", externalID, FonteTCE, endpoint, rec.Raw); err != nil {
				return processed, err
			}
			processed++
		}
	}
	p.logger.Info(component, "%d lotes consolidados em %d licitacoes", processed, len(order))
	return processed, nil
}

func (p *Pipeline) reconcileTCEContratos(ctx context.Context, endpoint string, recs []connector.Record[connector.TCEContratoRow]) (int, error) {
	const component = "pipeline.tce"

	processed := 0
	for _, rec := range recs {
		row := rec.Row
		numero := normalize.Text(row.Numero.String())
		empresa := normalize.Text(row.Empresa)
		if numero == "" && empresa == "" {
			continue
		}
		ativo := true
		if row.Ativo != nil {
			ativo = *row.Ativo
		}
		contrato := &store.Contrato{
			Numero:         numero,
			Ano:            normalize.Year(row.Ano.String()),
			Empresa:        empresa,
			CNPJ:           normalize.CNPJ(row.CNPJ.String()),
			Objeto:         row.Objeto,
			Valor:          row.Valor.Decimal,
			Fonte:          FonteTCE,
			InicioVigencia: normalize.DateISO(row.InicioVigencia.String()),
			FimVigencia:    normalize.DateISO(row.FimVigencia.String()),
			Assinatura:     normalize.DateISO(row.Assinatura.String()),
			Ativo:          ativo,
		}
		if err := p.storage.Contratos.Upsert(ctx, contrato); err != nil {
			return processed, err
		}
		externalID := fmt.Sprintf("contrato:%s:%s:%s", FonteTCE, numero, empresa)
		if err := p.recordProvenance(ctx, "contrato", externalID, FonteTCE, endpoint, rec.Raw); err != nil {
			return processed, err
		}
		processed++
	}
	p.logger.Info(component, "%d contratos do TCE reconciliados", processed)
	return processed, nil
}

// summarizeTCEReceita aggregates the audit court's revenue figures for
// the run log. They are comparison material and never overwrite the
// municipality's own consolidated revenue.
func (p *Pipeline) summarizeTCEReceita(recs []connector.Record[connector.TCEReceitaRow]) int {
	const component = "pipeline.tce"

	previsto := decimal.Zero
	realizado := decimal.Zero
	for _, rec := range recs {
		previsto = previsto.Add(rec.Row.PrevistoAtualizado.Decimal)
		realizado = realizado.Add(rec.Row.Realizado.Decimal)
	}
	p.logger.Info(component, "receita TCE: previsto %s, realizado %s em %d linhas",
		previsto.StringFixed(2), realizado.StringFixed(2), len(recs))
	return len(recs)
}

func (p *Pipeline) summarizeTCEDespesa(recs []connector.Record[connector.TCEDespesaRow]) int {
	const component = "pipeline.tce"

	empenhado := decimal.Zero
	liquidado := decimal.Zero
	pago := decimal.Zero
	for _, rec := range recs {
		empenhado = empenhado.Add(rec.Row.Empenhado.Decimal)
		liquidado = liquidado.Add(rec.Row.Liquidado.Decimal)
		pago = pago.Add(rec.Row.Pago.Decimal)
	}
	p.logger.Info(component, "despesa TCE: empenhado %s, liquidado %s, pago %s em %d linhas",
		empenhado.StringFixed(2), liquidado.StringFixed(2), pago.StringFixed(2), len(recs))
	return len(recs)
}
