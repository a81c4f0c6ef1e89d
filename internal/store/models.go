package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Run statuses for SyncRun rows.
const (
	RunPendente   = "pendente"
	RunExecutando = "executando"
	RunSucesso    = "sucesso"
	RunErro       = "erro"
)

// Alert severities.
const (
	SeveridadeAlta  = "alta"
	SeveridadeMedia = "media"
	SeveridadeBaixa = "baixa"
)

// Licitacao represents the 'licitacoes' table, one row per procurement
// notice per source. Valor is the sum over the source's lot rows.
type Licitacao struct {
	ID             int64           `db:"id" json:"id"`
	Certame        string          `db:"certame" json:"certame"`
	Ano            int             `db:"ano" json:"ano"`
	Modalidade     string          `db:"modalidade" json:"modalidade"`
	Objeto         string          `db:"objeto" json:"objeto"`
	Situacao       string          `db:"situacao" json:"situacao"`
	TipoObjeto     string          `db:"tipo_objeto" json:"tipo_objeto"`
	Valor          decimal.Decimal `db:"valor" json:"valor"`
	Fonte          string          `db:"fonte" json:"fonte"`
	DataPublicacao *time.Time      `db:"data_publicacao" json:"data_publicacao"`
	LinkEdital     string          `db:"link_edital" json:"link_edital"`
	AtualizadoEm   time.Time       `db:"atualizado_em" json:"atualizado_em"`
}

// Contrato represents the 'contratos' table.
type Contrato struct {
	ID             int64           `db:"id" json:"id"`
	Numero         string          `db:"numero" json:"numero"`
	Ano            int             `db:"ano" json:"ano"`
	Empresa        string          `db:"empresa" json:"empresa"`
	CNPJ           string          `db:"cnpj" json:"cnpj"`
	Modalidade     string          `db:"modalidade" json:"modalidade"`
	Objeto         string          `db:"objeto" json:"objeto"`
	Valor          decimal.Decimal `db:"valor" json:"valor"`
	Fonte          string          `db:"fonte" json:"fonte"`
	InicioVigencia *time.Time      `db:"inicio_vigencia" json:"inicio_vigencia"`
	FimVigencia    *time.Time      `db:"fim_vigencia" json:"fim_vigencia"`
	Assinatura     *time.Time      `db:"assinatura" json:"assinatura"`
	Ativo          bool            `db:"ativo" json:"ativo"`
	AtualizadoEm   time.Time       `db:"atualizado_em" json:"atualizado_em"`
}

// Fornecedor represents the 'fornecedores' table. ValorTotal and
// QtdContratos are derived from contract rows on every load, never
// incremented across loads.
type Fornecedor struct {
	ID           int64           `db:"id" json:"id"`
	Nome         string          `db:"nome" json:"nome"`
	CNPJ         string          `db:"cnpj" json:"cnpj"`
	ValorTotal   decimal.Decimal `db:"valor_total" json:"valor_total"`
	QtdContratos int             `db:"qtd_contratos" json:"qtd_contratos"`
	AtualizadoEm time.Time       `db:"atualizado_em" json:"atualizado_em"`
}

// Secretaria represents the 'secretarias' table.
type Secretaria struct {
	ID           int64     `db:"id" json:"id"`
	Nome         string    `db:"nome" json:"nome"`
	Gestor       string    `db:"gestor" json:"gestor"`
	AtualizadoEm time.Time `db:"atualizado_em" json:"atualizado_em"`
}

// Servidor represents the 'servidores' table. The table is a snapshot of
// the latest payroll competence, fully replaced on every load.
type Servidor struct {
	ID                 int64           `db:"id" json:"id"`
	Matricula          string          `db:"matricula" json:"matricula"`
	Nome               string          `db:"nome" json:"nome"`
	Orgao              string          `db:"orgao" json:"orgao"`
	Vinculo            string          `db:"vinculo" json:"vinculo"`
	Cargo              string          `db:"cargo" json:"cargo"`
	Funcao             string          `db:"funcao" json:"funcao"`
	CargaHoraria       string          `db:"carga_horaria" json:"carga_horaria"`
	RemuneracaoBruta   decimal.Decimal `db:"remuneracao_bruta" json:"remuneracao_bruta"`
	RemuneracaoLiquida decimal.Decimal `db:"remuneracao_liquida" json:"remuneracao_liquida"`
	Competencia        *time.Time      `db:"competencia" json:"competencia"`
}

// Vereador represents the 'vereadores' table.
type Vereador struct {
	ID      int64  `db:"id" json:"id"`
	Nome    string `db:"nome" json:"nome"`
	Partido string `db:"partido" json:"partido"`
	Cargo   string `db:"cargo" json:"cargo"`
	Mandato string `db:"mandato" json:"mandato"`
}

// ReceitaResumo represents the 'receitas_resumo' table, one row per
// exercise year.
type ReceitaResumo struct {
	ID                 int64           `db:"id" json:"id"`
	Ano                int             `db:"ano" json:"ano"`
	PrevisaoAtualizada decimal.Decimal `db:"previsao_atualizada" json:"previsao_atualizada"`
	Arrecadacao        decimal.Decimal `db:"arrecadacao" json:"arrecadacao"`
	AtualizadoEm       time.Time       `db:"atualizado_em" json:"atualizado_em"`
}

// DespesaSecretaria represents the 'despesas_secretaria' table: budget
// execution per organizational unit per year.
type DespesaSecretaria struct {
	ID           int64           `db:"id" json:"id"`
	Ano          int             `db:"ano" json:"ano"`
	Secretaria   string          `db:"secretaria" json:"secretaria"`
	Orcado       decimal.Decimal `db:"orcado" json:"orcado"`
	Empenhado    decimal.Decimal `db:"empenhado" json:"empenhado"`
	Liquidado    decimal.Decimal `db:"liquidado" json:"liquidado"`
	Pago         decimal.Decimal `db:"pago" json:"pago"`
	AtualizadoEm time.Time       `db:"atualizado_em" json:"atualizado_em"`
}

// Emenda represents the 'emendas' table (parliamentary amendments).
type Emenda struct {
	ID            int64           `db:"id" json:"id"`
	Numero        string          `db:"numero" json:"numero"`
	Ano           int             `db:"ano" json:"ano"`
	Autoria       string          `db:"autoria" json:"autoria"`
	Tipo          string          `db:"tipo" json:"tipo"`
	OrigemRecurso string          `db:"origem_recurso" json:"origem_recurso"`
	Objeto        string          `db:"objeto" json:"objeto"`
	FuncaoGoverno string          `db:"funcao_governo" json:"funcao_governo"`
	Beneficiario  string          `db:"beneficiario" json:"beneficiario"`
	Unidade       string          `db:"unidade" json:"unidade"`
	ValorPrevisto decimal.Decimal `db:"valor_previsto" json:"valor_previsto"`
	Empenhado     decimal.Decimal `db:"empenhado" json:"empenhado"`
	Liquidado     decimal.Decimal `db:"liquidado" json:"liquidado"`
	Pago          decimal.Decimal `db:"pago" json:"pago"`
	Data          *time.Time      `db:"data" json:"data"`
}

// OrcamentoItem represents the 'orcamento_itens' table (budget
// allocations at the action/nature grain).
type OrcamentoItem struct {
	ID              int64           `db:"id" json:"id"`
	Exercicio       int             `db:"exercicio" json:"exercicio"`
	CodigoOrgao     string          `db:"codigo_orgao" json:"codigo_orgao"`
	Unidade         string          `db:"unidade" json:"unidade"`
	Acao            string          `db:"acao" json:"acao"`
	Funcao          string          `db:"funcao" json:"funcao"`
	SubFuncao       string          `db:"sub_funcao" json:"sub_funcao"`
	NaturezaDespesa string          `db:"natureza_despesa" json:"natureza_despesa"`
	ElementoDespesa string          `db:"elemento_despesa" json:"elemento_despesa"`
	FonteRecurso    string          `db:"fonte_recurso" json:"fonte_recurso"`
	ValorInicial    decimal.Decimal `db:"valor_inicial" json:"valor_inicial"`
	ValorAtualizado decimal.Decimal `db:"valor_atualizado" json:"valor_atualizado"`
	ValorDisponivel decimal.Decimal `db:"valor_disponivel" json:"valor_disponivel"`
}

// SyncRun represents the 'sync_runs' table: one row per pipeline
// execution, the operational history the health monitor reads.
type SyncRun struct {
	ID           int64      `db:"id" json:"id"`
	UUID         string     `db:"uuid" json:"uuid"`
	Fonte        string     `db:"fonte" json:"fonte"`
	Status       string     `db:"status" json:"status"`
	IniciadoEm   time.Time  `db:"iniciado_em" json:"iniciado_em"`
	FinalizadoEm *time.Time `db:"finalizado_em" json:"finalizado_em"`
	Registros    int        `db:"registros" json:"registros"`
	Erros        int        `db:"erros" json:"erros"`
	Mensagem     string     `db:"mensagem" json:"mensagem"`
}

// DataProvenance represents the 'data_provenance' table: one row per
// distinct raw record ever ingested, keyed by content hash.
type DataProvenance struct {
	ID         int64     `db:"id" json:"id"`
	Entidade   string    `db:"entidade" json:"entidade"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Fonte      string    `db:"fonte" json:"fonte"`
	Endpoint   string    `db:"endpoint" json:"endpoint"`
	Hash       string    `db:"hash" json:"hash"`
	Versao     string    `db:"versao" json:"versao"`
	ColetadoEm time.Time `db:"coletado_em" json:"coletado_em"`
}

// Alerta represents the 'alertas' table.
type Alerta struct {
	ID         int64     `db:"id" json:"id"`
	Codigo     string    `db:"codigo" json:"codigo"`
	Titulo     string    `db:"titulo" json:"titulo"`
	Descricao  string    `db:"descricao" json:"descricao"`
	Severidade string    `db:"severidade" json:"severidade"`
	CriadoEm   time.Time `db:"criado_em" json:"criado_em"`
}

// AccessProfile represents the 'access_profiles' table: the seeded
// role-to-permission mapping for the read surface.
type AccessProfile struct {
	ID         int64  `db:"id" json:"id"`
	Nome       string `db:"nome" json:"nome"`
	Descricao  string `db:"descricao" json:"descricao"`
	Permissoes string `db:"permissoes" json:"permissoes"`
}
