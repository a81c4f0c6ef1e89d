package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

const (
	provenanceVersao   = "v1"
	maxExternalIDRunes = 120
)

// CanonicalHash computes the SHA-256 of a raw record's canonical JSON
// form: keys sorted, no insignificant whitespace. Two payloads with the
// same content but different key order hash identically.
func CanonicalHash(raw json.RawMessage) string {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		sum := sha256.Sum256(raw)
		return hex.EncodeToString(sum[:])
	}
	canonical, err := json.Marshal(value)
	if err != nil {
		sum := sha256.Sum256(raw)
		return hex.EncodeToString(sum[:])
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// recordProvenance registers one raw record, naming the endpoint (URL
// path or snapshot file) it was fetched from. A repeated content hash
// is not an error: it means the identical record was seen before and
// the unique fence did its job.
func (p *Pipeline) recordProvenance(ctx context.Context, entidade, externalID, fonte, endpoint string, raw json.RawMessage) error {
	_, err := p.storage.Provenance.Record(ctx, &store.DataProvenance{
		Entidade:   entidade,
		ExternalID: truncateRunes(externalID, maxExternalIDRunes),
		Fonte:      fonte,
		Endpoint:   endpoint,
		Hash:       CanonicalHash(raw),
		Versao:     provenanceVersao,
		ColetadoEm: time.Now(),
	})
	return err
}
