package pipeline

// LoadPolicy names how reconciled rows of an entity are written.
type LoadPolicy int

const (
	// PolicyUpsert inserts or updates by natural key.
	PolicyUpsert LoadPolicy = iota
	// PolicyReplaceAll deletes the table's contents and loads the new set.
	PolicyReplaceAll
	// PolicyAccumulate groups raw rows by natural key and sums their
	// values before upserting.
	PolicyAccumulate
	// PolicyLatestWins dedupes raw rows by key, keeping the most recently
	// dated one, then fully replaces the table.
	PolicyLatestWins
)

// Policies declares, in one place, how each entity is loaded. The
// loaders consult this table instead of hard-coding the behavior.
var Policies = map[string]LoadPolicy{
	"licitacao":          PolicyAccumulate,
	"contrato":           PolicyUpsert,
	"fornecedor":         PolicyUpsert,
	"secretaria":         PolicyUpsert,
	"vereador":           PolicyUpsert,
	"receita_resumo":     PolicyUpsert,
	"despesa_secretaria": PolicyUpsert,
	"servidor":           PolicyLatestWins,
	"emenda":             PolicyReplaceAll,
	"orcamento_item":     PolicyReplaceAll,
}

func policyFor(entidade string) LoadPolicy {
	return Policies[entidade]
}
