package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ListOptions carries pagination and ordering for the list queries.
// OrderBy values are whitelisted per entity; an unknown value falls back
// to the entity's default ordering.
type ListOptions struct {
	Limit   int
	Offset  int
	OrderBy string
}

type Storage struct {
	Licitacoes interface {
		Upsert(ctx context.Context, licitacao *Licitacao) error
		List(ctx context.Context, opts ListOptions) ([]Licitacao, error)
		Count(ctx context.Context) (int, error)
		CountSituacaoContains(ctx context.Context, fragmento string) (int, error)
		Total(ctx context.Context) (decimal.Decimal, error)
	}

	Contratos interface {
		Upsert(ctx context.Context, contrato *Contrato) error
		List(ctx context.Context, opts ListOptions) ([]Contrato, error)
		Count(ctx context.Context) (int, error)
		CountSemCNPJ(ctx context.Context) (int, error)
		Valores(ctx context.Context) ([]decimal.Decimal, error)
		Total(ctx context.Context) (decimal.Decimal, error)
	}

	Fornecedores interface {
		Upsert(ctx context.Context, fornecedor *Fornecedor) error
		List(ctx context.Context, opts ListOptions) ([]Fornecedor, error)
		Count(ctx context.Context) (int, error)
		Total(ctx context.Context) (decimal.Decimal, error)
	}

	Secretarias interface {
		GetOrCreate(ctx context.Context, nome string) (*Secretaria, error)
		SetGestor(ctx context.Context, nome, gestor string) error
		List(ctx context.Context) ([]Secretaria, error)
	}

	Servidores interface {
		ReplaceAll(ctx context.Context, servidores []Servidor) error
		List(ctx context.Context, opts ListOptions) ([]Servidor, error)
		Count(ctx context.Context) (int, error)
		CountBrutoZero(ctx context.Context) (int, error)
		Vinculos(ctx context.Context) (map[string]int, error)
	}

	Vereadores interface {
		Upsert(ctx context.Context, vereador *Vereador) error
		List(ctx context.Context) ([]Vereador, error)
		Count(ctx context.Context) (int, error)
	}

	Financas interface {
		UpsertReceita(ctx context.Context, receita *ReceitaResumo) error
		GetReceita(ctx context.Context, ano int) (*ReceitaResumo, error)
		UpsertDespesa(ctx context.Context, despesa *DespesaSecretaria) error
		ListDespesas(ctx context.Context, ano int) ([]DespesaSecretaria, error)
		ReplaceEmendas(ctx context.Context, emendas []Emenda) error
		ListEmendas(ctx context.Context, opts ListOptions) ([]Emenda, error)
		ReplaceOrcamento(ctx context.Context, itens []OrcamentoItem) error
		ListOrcamento(ctx context.Context, opts ListOptions) ([]OrcamentoItem, error)
	}

	SyncRuns interface {
		Insert(ctx context.Context, run *SyncRun) error
		Update(ctx context.Context, run *SyncRun) error
		List(ctx context.Context, limit int) ([]SyncRun, error)
		SweepStuck(ctx context.Context, olderThan time.Time, mensagem string) (int, error)
	}

	Provenance interface {
		Record(ctx context.Context, prov *DataProvenance) (bool, error)
		List(ctx context.Context, limit int) ([]DataProvenance, error)
		Count(ctx context.Context) (int, error)
	}

	Alertas interface {
		ReplaceAll(ctx context.Context, alertas []Alerta) error
		Insert(ctx context.Context, alerta *Alerta) error
		List(ctx context.Context, limit int) ([]Alerta, error)
	}

	Admin interface {
		TruncateReconciled(ctx context.Context) error
		EnsureAccessProfiles(ctx context.Context, profiles []AccessProfile) (int, error)
		ListAccessProfiles(ctx context.Context) ([]AccessProfile, error)
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		Licitacoes:   &LicitacaoStore{db: db},
		Contratos:    &ContratoStore{db: db},
		Fornecedores: &FornecedorStore{db: db},
		Secretarias:  &SecretariaStore{db: db},
		Servidores:   &ServidorStore{db: db},
		Vereadores:   &VereadorStore{db: db},
		Financas:     &FinancasStore{db: db},
		SyncRuns:     &SyncRunStore{db: db},
		Provenance:   &ProvenanceStore{db: db},
		Alertas:      &AlertaStore{db: db},
		Admin:        &AdminStore{db: db},
	}
}
