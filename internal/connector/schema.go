package connector

import (
	"encoding/json"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/normalize"
)

// Raw row schemas, one per upstream wire format. Field names mirror the
// portals' JSON keys exactly; all monetary fields decode through the
// lenient Money type and identifier fields through String, because the
// portals switch between numbers and strings from one export to the next.

// ReceitaRow is a TopSolutions revenue row (legacy snapshot and live API
// share the shape).
type ReceitaRow struct {
	Exercicio          int              `json:"numExercicioFinanc"`
	Classificacao      string           `json:"txtClassificacao"`
	Unidade            string           `json:"txtDescricaoUnidade"`
	PrevisaoAtualizada normalize.Money  `json:"vlrPrevisaoAtualizado"`
	Arrecadacao        normalize.Money  `json:"vlrArrecadacao"`
	MesAno             normalize.String `json:"dtMesAno"`
}

// DespesaRow is a TopSolutions budget-execution row grouped by unit.
type DespesaRow struct {
	Exercicio        int             `json:"exercicio"`
	Unidade          string          `json:"txtDescricaoUnidade"`
	OrcadoAtualizado normalize.Money `json:"vlrOrcadoAtualizado"`
	Empenhado        normalize.Money `json:"vlrEmpenhado"`
	Liquidado        normalize.Money `json:"vlrLiquidado"`
	Pago             normalize.Money `json:"vlrPago"`
}

// LicitacaoRow is a TopSolutions procurement-notice row.
type LicitacaoRow struct {
	Certame    normalize.String `json:"numCertame"`
	Modalidade string           `json:"txtModalidadeLicit"`
	Objeto     string           `json:"txtObjeto"`
	Situacao   string           `json:"txtSituacao"`
	ValorTotal normalize.Money  `json:"vlrTotal"`
}

// ContratoRow is a TopSolutions contract row.
type ContratoRow struct {
	Numero     normalize.String `json:"numContrato"`
	Empresa    string           `json:"txtNomeRazaoContratada"`
	CNPJ       normalize.String `json:"txtCpfCnpjContratada"`
	Modalidade string           `json:"txtModalidade"`
	Objeto     string           `json:"txtObjeto"`
	Valor      normalize.Money  `json:"vlrContrato"`
}

// ServidorMes is one month's payroll entry in the legacy snapshot file:
// the month number plus the payload the portal returned for it. Rows
// stay raw here so provenance can hash the original records.
type ServidorMes struct {
	Mes     int `json:"mes"`
	Payload struct {
		Data []json.RawMessage `json:"data"`
	} `json:"payload"`
}

// ServidorRow is a TopSolutions payroll row.
type ServidorRow struct {
	Matricula         normalize.String `json:"numMatricula"`
	Nome              string           `json:"nome"`
	Orgao             string           `json:"orgao"`
	Vinculo           string           `json:"vinculo"`
	Cargo             string           `json:"cargo"`
	Funcao            string           `json:"funcao"`
	CargaHoraria      normalize.String `json:"cargaHoraria"`
	RemuneracaoBruta  normalize.Money  `json:"vlrRemuneracaoBruta"`
	RemuneracaoApos   normalize.Money  `json:"vlrRemuAposDescObrig"`
	MesAno            normalize.String `json:"dtMesAno"`
}

// EmendaRow is a TopSolutions parliamentary-amendment row.
type EmendaRow struct {
	Numero        normalize.String `json:"numEmenda"`
	Ano           int              `json:"anoEmenda"`
	Autoria       string           `json:"autoria"`
	Tipo          string           `json:"txtTipoEmenda"`
	OrigemRecurso string           `json:"txtOrigemRecurso"`
	Objeto        string           `json:"objeto"`
	FuncaoGoverno string           `json:"txtFuncaoGoverno"`
	Beneficiario  string           `json:"txtBeneficiario"`
	Unidade       string           `json:"txtDescricaoUnidade"`
	ValorPrevisto normalize.Money  `json:"vlrPrevisto"`
	Empenhado     normalize.Money  `json:"vlrEmpenhado"`
	Liquidado     normalize.Money  `json:"vlrLiquidado"`
	Pago          normalize.Money  `json:"vlrPago"`
	Data          normalize.String `json:"dtEmenda"`
}

// OrcamentoRow is a TopSolutions budget-allocation row.
type OrcamentoRow struct {
	Exercicio       int              `json:"numExercicioFinanc"`
	CodigoOrgao     normalize.String `json:"codOrgao"`
	Unidade         string           `json:"txtDescricaoUnidade"`
	Acao            string           `json:"txtDescricaoAcao"`
	Funcao          string           `json:"txtDescricaoFuncao"`
	SubFuncao       string           `json:"txtDescricaoSubFuncao"`
	NaturezaDespesa normalize.String `json:"codNaturezaDespesa"`
	ElementoDespesa string           `json:"txtDescricaoElementoDespesa"`
	FonteRecurso    string           `json:"txtDescricaoFonteRecurso"`
	ValorInicial    normalize.Money  `json:"vlrOrcamentoInicial"`
	ValorAtualizado normalize.Money  `json:"vlrOrcamentoAtualizado"`
	ValorDisponivel normalize.Money  `json:"vlrDisponivel"`
}

// TCELicitacaoRow is a TCE-RN open-data procurement row. The portal emits
// one row per lot, sharing numeroLicitacao/anoLicitacao across lots.
type TCELicitacaoRow struct {
	Numero         normalize.String `json:"numeroLicitacao"`
	Ano            normalize.String `json:"anoLicitacao"`
	NumeroLote     normalize.String `json:"numeroLote"`
	Modalidade     string           `json:"modalidade"`
	Objeto         string           `json:"descricaoObjeto"`
	TipoObjeto     string           `json:"tipoObjeto"`
	Situacao       string           `json:"situacaoProcedimentoLicitacao"`
	ValorOrcado    normalize.Money  `json:"valorTotalOrcado"`
	DataPublicacao normalize.String `json:"dataPublicacaoLicitacaoPublica"`
	LinkEdital     string           `json:"linkEdital"`
}

// TCEContratoRow is a TCE-RN open-data contract row.
type TCEContratoRow struct {
	Numero         normalize.String `json:"numeroContrato"`
	Ano            normalize.String `json:"anoContrato"`
	CNPJ           normalize.String `json:"cpfcnpjContratado"`
	Empresa        string           `json:"nomeContratado"`
	Objeto         string           `json:"objetoContrato"`
	Valor          normalize.Money  `json:"valorContrato"`
	InicioVigencia normalize.String `json:"dataInicioVigencia"`
	FimVigencia    normalize.String `json:"dataTerminoVigencia"`
	Assinatura     normalize.String `json:"dataDataAssinatura"`
	Ativo          *bool            `json:"ativo"`
}

// TCEDespesaRow is a TCE-RN budget-execution aggregate row.
type TCEDespesaRow struct {
	DotacaoInicial    normalize.Money `json:"valorDotacaoInicial"`
	DotacaoAtualizada normalize.Money `json:"valorDotacaoAtualizada"`
	Empenhado         normalize.Money `json:"valorEmpenhoAtePeriodo"`
	Liquidado         normalize.Money `json:"valorLiquidacaoAtePeriodo"`
	Pago              normalize.Money `json:"valorPagoAtePeriodo"`
}

// TCEReceitaRow is a TCE-RN revenue aggregate row. The typo in the
// realized-value key is the portal's, not ours.
type TCEReceitaRow struct {
	PrevistoAtualizado normalize.Money `json:"valorPrevistoAtualizado"`
	Realizado          normalize.Money `json:"valorRealizadoNoExecicio"`
}

// VereadorRow is a câmara portal councillor row.
type VereadorRow struct {
	Nome    string           `json:"nome"`
	Partido string           `json:"partido"`
	Cargo   string           `json:"cargo"`
	Mandato normalize.String `json:"mandato"`
}
