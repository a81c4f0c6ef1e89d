package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// NewMemory builds a Storage backed by in-process maps. It implements
// the exact interface set of the Postgres stores and exists so the
// pipeline, validator, risk engine and monitor can be tested end to end
// without a database.
func NewMemory() *Storage {
	m := &memory{}
	return &Storage{
		Licitacoes:   &memLicitacoes{m: m},
		Contratos:    &memContratos{m: m},
		Fornecedores: &memFornecedores{m: m},
		Secretarias:  &memSecretarias{m: m},
		Servidores:   &memServidores{m: m},
		Vereadores:   &memVereadores{m: m},
		Financas:     &memFinancas{m: m},
		SyncRuns:     &memSyncRuns{m: m},
		Provenance:   &memProvenance{m: m},
		Alertas:      &memAlertas{m: m},
		Admin:        &memAdmin{m: m},
	}
}

type memory struct {
	mu     sync.Mutex
	nextID int64

	licitacoes   map[string]*Licitacao        // certame|fonte
	contratos    map[string]*Contrato         // numero|empresa|fonte
	fornecedores map[string]*Fornecedor       // nome
	secretarias  map[string]*Secretaria       // nome
	servidores   []Servidor
	vereadores   map[string]*Vereador // nome
	receitas     map[int]*ReceitaResumo
	despesas     map[string]*DespesaSecretaria // ano|secretaria
	emendas      []Emenda
	orcamento    []OrcamentoItem
	runs         []*SyncRun
	provenance   map[string]*DataProvenance // hash
	alertas      []Alerta
	profiles     map[string]*AccessProfile // nome
}

func (m *memory) id() int64 {
	m.nextID++
	return m.nextID
}

func paginate[T any](items []T, opts ListOptions) []T {
	limit := pageLimit(opts.Limit)
	if opts.Offset >= len(items) {
		return []T{}
	}
	end := opts.Offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[opts.Offset:end]
}

type memLicitacoes struct{ m *memory }

func (s *memLicitacoes) Upsert(ctx context.Context, licitacao *Licitacao) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.licitacoes == nil {
		s.m.licitacoes = map[string]*Licitacao{}
	}
	key := licitacao.Certame + "|" + licitacao.Fonte
	stored := *licitacao
	stored.AtualizadoEm = time.Now()
	if existing, ok := s.m.licitacoes[key]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = s.m.id()
	}
	s.m.licitacoes[key] = &stored
	licitacao.ID = stored.ID
	return nil
}

func (s *memLicitacoes) all() []Licitacao {
	out := make([]Licitacao, 0, len(s.m.licitacoes))
	for _, licitacao := range s.m.licitacoes {
		out = append(out, *licitacao)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Valor.Equal(out[j].Valor) {
			return out[i].Valor.GreaterThan(out[j].Valor)
		}
		return out[i].Certame < out[j].Certame
	})
	return out
}

func (s *memLicitacoes) List(ctx context.Context, opts ListOptions) ([]Licitacao, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return paginate(s.all(), opts), nil
}

func (s *memLicitacoes) Count(ctx context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.licitacoes), nil
}

func (s *memLicitacoes) CountSituacaoContains(ctx context.Context, fragmento string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	fragmento = strings.ToUpper(fragmento)
	count := 0
	for _, licitacao := range s.m.licitacoes {
		if strings.Contains(strings.ToUpper(licitacao.Situacao), fragmento) {
			count++
		}
	}
	return count, nil
}

func (s *memLicitacoes) Total(ctx context.Context) (decimal.Decimal, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	total := decimal.Zero
	for _, licitacao := range s.m.licitacoes {
		total = total.Add(licitacao.Valor)
	}
	return total, nil
}

type memContratos struct{ m *memory }

func (s *memContratos) Upsert(ctx context.Context, contrato *Contrato) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.contratos == nil {
		s.m.contratos = map[string]*Contrato{}
	}
	key := contrato.Numero + "|" + contrato.Empresa + "|" + contrato.Fonte
	stored := *contrato
	stored.AtualizadoEm = time.Now()
	if existing, ok := s.m.contratos[key]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = s.m.id()
	}
	s.m.contratos[key] = &stored
	contrato.ID = stored.ID
	return nil
}

func (s *memContratos) all() []Contrato {
	out := make([]Contrato, 0, len(s.m.contratos))
	for _, contrato := range s.m.contratos {
		out = append(out, *contrato)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Valor.Equal(out[j].Valor) {
			return out[i].Valor.GreaterThan(out[j].Valor)
		}
		return out[i].Numero < out[j].Numero
	})
	return out
}

func (s *memContratos) List(ctx context.Context, opts ListOptions) ([]Contrato, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return paginate(s.all(), opts), nil
}

func (s *memContratos) Count(ctx context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.contratos), nil
}

func (s *memContratos) CountSemCNPJ(ctx context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, contrato := range s.m.contratos {
		if contrato.CNPJ == "" {
			count++
		}
	}
	return count, nil
}

func (s *memContratos) Valores(ctx context.Context) ([]decimal.Decimal, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	valores := make([]decimal.Decimal, 0, len(s.m.contratos))
	for _, contrato := range s.all() {
		valores = append(valores, contrato.Valor)
	}
	return valores, nil
}

func (s *memContratos) Total(ctx context.Context) (decimal.Decimal, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	total := decimal.Zero
	for _, contrato := range s.m.contratos {
		total = total.Add(contrato.Valor)
	}
	return total, nil
}

type memFornecedores struct{ m *memory }

func (s *memFornecedores) Upsert(ctx context.Context, fornecedor *Fornecedor) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.fornecedores == nil {
		s.m.fornecedores = map[string]*Fornecedor{}
	}
	stored := *fornecedor
	stored.AtualizadoEm = time.Now()
	if existing, ok := s.m.fornecedores[fornecedor.Nome]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = s.m.id()
	}
	s.m.fornecedores[fornecedor.Nome] = &stored
	fornecedor.ID = stored.ID
	return nil
}

func (s *memFornecedores) List(ctx context.Context, opts ListOptions) ([]Fornecedor, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]Fornecedor, 0, len(s.m.fornecedores))
	for _, fornecedor := range s.m.fornecedores {
		out = append(out, *fornecedor)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ValorTotal.Equal(out[j].ValorTotal) {
			return out[i].ValorTotal.GreaterThan(out[j].ValorTotal)
		}
		return out[i].Nome < out[j].Nome
	})
	return paginate(out, opts), nil
}

func (s *memFornecedores) Count(ctx context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.fornecedores), nil
}

func (s *memFornecedores) Total(ctx context.Context) (decimal.Decimal, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	total := decimal.Zero
	for _, fornecedor := range s.m.fornecedores {
		total = total.Add(fornecedor.ValorTotal)
	}
	return total, nil
}

type memSecretarias struct{ m *memory }

func (s *memSecretarias) GetOrCreate(ctx context.Context, nome string) (*Secretaria, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.secretarias == nil {
		s.m.secretarias = map[string]*Secretaria{}
	}
	if existing, ok := s.m.secretarias[nome]; ok {
		copied := *existing
		return &copied, nil
	}
	secretaria := &Secretaria{ID: s.m.id(), Nome: nome, AtualizadoEm: time.Now()}
	s.m.secretarias[nome] = secretaria
	copied := *secretaria
	return &copied, nil
}

func (s *memSecretarias) SetGestor(ctx context.Context, nome, gestor string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.secretarias == nil {
		s.m.secretarias = map[string]*Secretaria{}
	}
	if existing, ok := s.m.secretarias[nome]; ok {
		existing.Gestor = gestor
		existing.AtualizadoEm = time.Now()
		return nil
	}
	s.m.secretarias[nome] = &Secretaria{ID: s.m.id(), Nome: nome, Gestor: gestor, AtualizadoEm: time.Now()}
	return nil
}

func (s *memSecretarias) List(ctx context.Context) ([]Secretaria, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]Secretaria, 0, len(s.m.secretarias))
	for _, secretaria := range s.m.secretarias {
		out = append(out, *secretaria)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, nil
}

type memServidores struct{ m *memory }

func (s *memServidores) ReplaceAll(ctx context.Context, servidores []Servidor) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	replacement := make([]Servidor, len(servidores))
	copy(replacement, servidores)
	for i := range replacement {
		replacement[i].ID = s.m.id()
	}
	s.m.servidores = replacement
	return nil
}

func (s *memServidores) List(ctx context.Context, opts ListOptions) ([]Servidor, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]Servidor, len(s.m.servidores))
	copy(out, s.m.servidores)
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return paginate(out, opts), nil
}

func (s *memServidores) Count(ctx context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.servidores), nil
}

func (s *memServidores) CountBrutoZero(ctx context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, servidor := range s.m.servidores {
		if servidor.RemuneracaoBruta.IsZero() {
			count++
		}
	}
	return count, nil
}

func (s *memServidores) Vinculos(ctx context.Context) (map[string]int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	vinculos := map[string]int{}
	for _, servidor := range s.m.servidores {
		vinculos[servidor.Vinculo]++
	}
	return vinculos, nil
}

type memVereadores struct{ m *memory }

func (s *memVereadores) Upsert(ctx context.Context, vereador *Vereador) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.vereadores == nil {
		s.m.vereadores = map[string]*Vereador{}
	}
	stored := *vereador
	if existing, ok := s.m.vereadores[vereador.Nome]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = s.m.id()
	}
	s.m.vereadores[vereador.Nome] = &stored
	vereador.ID = stored.ID
	return nil
}

func (s *memVereadores) List(ctx context.Context) ([]Vereador, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]Vereador, 0, len(s.m.vereadores))
	for _, vereador := range s.m.vereadores {
		out = append(out, *vereador)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, nil
}

func (s *memVereadores) Count(ctx context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.vereadores), nil
}

type memFinancas struct{ m *memory }

func (s *memFinancas) UpsertReceita(ctx context.Context, receita *ReceitaResumo) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.receitas == nil {
		s.m.receitas = map[int]*ReceitaResumo{}
	}
	stored := *receita
	stored.AtualizadoEm = time.Now()
	if existing, ok := s.m.receitas[receita.Ano]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = s.m.id()
	}
	s.m.receitas[receita.Ano] = &stored
	receita.ID = stored.ID
	return nil
}

func (s *memFinancas) GetReceita(ctx context.Context, ano int) (*ReceitaResumo, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	receita, ok := s.m.receitas[ano]
	if !ok {
		return nil, nil
	}
	copied := *receita
	return &copied, nil
}

func (s *memFinancas) UpsertDespesa(ctx context.Context, despesa *DespesaSecretaria) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.despesas == nil {
		s.m.despesas = map[string]*DespesaSecretaria{}
	}
	key := strconv.Itoa(despesa.Ano) + "|" + despesa.Secretaria
	stored := *despesa
	stored.AtualizadoEm = time.Now()
	if existing, ok := s.m.despesas[key]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = s.m.id()
	}
	s.m.despesas[key] = &stored
	despesa.ID = stored.ID
	return nil
}

func (s *memFinancas) ListDespesas(ctx context.Context, ano int) ([]DespesaSecretaria, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []DespesaSecretaria{}
	for _, despesa := range s.m.despesas {
		if despesa.Ano == ano {
			out = append(out, *despesa)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Empenhado.Equal(out[j].Empenhado) {
			return out[i].Empenhado.GreaterThan(out[j].Empenhado)
		}
		return out[i].Secretaria < out[j].Secretaria
	})
	return out, nil
}

func (s *memFinancas) ReplaceEmendas(ctx context.Context, emendas []Emenda) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	replacement := make([]Emenda, len(emendas))
	copy(replacement, emendas)
	for i := range replacement {
		replacement[i].ID = s.m.id()
	}
	s.m.emendas = replacement
	return nil
}

func (s *memFinancas) ListEmendas(ctx context.Context, opts ListOptions) ([]Emenda, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]Emenda, len(s.m.emendas))
	copy(out, s.m.emendas)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ValorPrevisto.Equal(out[j].ValorPrevisto) {
			return out[i].ValorPrevisto.GreaterThan(out[j].ValorPrevisto)
		}
		return out[i].Numero < out[j].Numero
	})
	return paginate(out, opts), nil
}

func (s *memFinancas) ReplaceOrcamento(ctx context.Context, itens []OrcamentoItem) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	replacement := make([]OrcamentoItem, len(itens))
	copy(replacement, itens)
	for i := range replacement {
		replacement[i].ID = s.m.id()
	}
	s.m.orcamento = replacement
	return nil
}

func (s *memFinancas) ListOrcamento(ctx context.Context, opts ListOptions) ([]OrcamentoItem, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]OrcamentoItem, len(s.m.orcamento))
	copy(out, s.m.orcamento)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ValorInicial.Equal(out[j].ValorInicial) {
			return out[i].ValorInicial.GreaterThan(out[j].ValorInicial)
		}
		return out[i].Acao < out[j].Acao
	})
	return paginate(out, opts), nil
}

type memSyncRuns struct{ m *memory }

func (s *memSyncRuns) Insert(ctx context.Context, run *SyncRun) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	run.ID = s.m.id()
	stored := *run
	s.m.runs = append(s.m.runs, &stored)
	return nil
}

func (s *memSyncRuns) Update(ctx context.Context, run *SyncRun) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, stored := range s.m.runs {
		if stored.ID == run.ID {
			stored.Status = run.Status
			stored.FinalizadoEm = run.FinalizadoEm
			stored.Registros = run.Registros
			stored.Erros = run.Erros
			stored.Mensagem = run.Mensagem
			return nil
		}
	}
	return nil
}

func (s *memSyncRuns) List(ctx context.Context, limit int) ([]SyncRun, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]SyncRun, 0, len(s.m.runs))
	for _, run := range s.m.runs {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IniciadoEm.Equal(out[j].IniciadoEm) {
			return out[i].IniciadoEm.After(out[j].IniciadoEm)
		}
		return out[i].ID > out[j].ID
	})
	if limit = pageLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memSyncRuns) SweepStuck(ctx context.Context, olderThan time.Time, mensagem string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	swept := 0
	now := time.Now()
	for _, run := range s.m.runs {
		if run.Status == RunExecutando && run.IniciadoEm.Before(olderThan) {
			run.Status = RunErro
			run.Mensagem = mensagem
			run.FinalizadoEm = &now
			swept++
		}
	}
	return swept, nil
}

type memProvenance struct{ m *memory }

func (s *memProvenance) Record(ctx context.Context, prov *DataProvenance) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.provenance == nil {
		s.m.provenance = map[string]*DataProvenance{}
	}
	if _, ok := s.m.provenance[prov.Hash]; ok {
		return false, nil
	}
	stored := *prov
	stored.ID = s.m.id()
	s.m.provenance[prov.Hash] = &stored
	prov.ID = stored.ID
	return true, nil
}

func (s *memProvenance) List(ctx context.Context, limit int) ([]DataProvenance, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]DataProvenance, 0, len(s.m.provenance))
	for _, prov := range s.m.provenance {
		out = append(out, *prov)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ColetadoEm.Equal(out[j].ColetadoEm) {
			return out[i].ColetadoEm.After(out[j].ColetadoEm)
		}
		return out[i].ID > out[j].ID
	})
	if limit = pageLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memProvenance) Count(ctx context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.provenance), nil
}

type memAlertas struct{ m *memory }

func (s *memAlertas) ReplaceAll(ctx context.Context, alertas []Alerta) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	replacement := make([]Alerta, len(alertas))
	copy(replacement, alertas)
	for i := range replacement {
		replacement[i].ID = s.m.id()
	}
	s.m.alertas = replacement
	return nil
}

func (s *memAlertas) Insert(ctx context.Context, alerta *Alerta) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	alerta.ID = s.m.id()
	s.m.alertas = append(s.m.alertas, *alerta)
	return nil
}

func (s *memAlertas) List(ctx context.Context, limit int) ([]Alerta, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]Alerta, len(s.m.alertas))
	copy(out, s.m.alertas)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CriadoEm.Equal(out[j].CriadoEm) {
			return out[i].CriadoEm.After(out[j].CriadoEm)
		}
		return out[i].ID > out[j].ID
	})
	if limit = pageLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memAdmin struct{ m *memory }

func (s *memAdmin) TruncateReconciled(ctx context.Context) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.licitacoes = nil
	s.m.contratos = nil
	s.m.fornecedores = nil
	s.m.secretarias = nil
	s.m.servidores = nil
	s.m.vereadores = nil
	s.m.receitas = nil
	s.m.despesas = nil
	s.m.emendas = nil
	s.m.orcamento = nil
	s.m.provenance = nil
	return nil
}

func (s *memAdmin) EnsureAccessProfiles(ctx context.Context, profiles []AccessProfile) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.profiles == nil {
		s.m.profiles = map[string]*AccessProfile{}
	}
	for _, profile := range profiles {
		stored := profile
		if existing, ok := s.m.profiles[profile.Nome]; ok {
			stored.ID = existing.ID
		} else {
			stored.ID = s.m.id()
		}
		s.m.profiles[profile.Nome] = &stored
	}
	return len(profiles), nil
}

func (s *memAdmin) ListAccessProfiles(ctx context.Context) ([]AccessProfile, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]AccessProfile, 0, len(s.m.profiles))
	for _, profile := range s.m.profiles {
		out = append(out, *profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, nil
}
