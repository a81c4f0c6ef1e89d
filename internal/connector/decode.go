package connector

import "encoding/json"

// Record pairs a typed row with the raw JSON it was decoded from. The
// raw form survives to the provenance layer, which hashes the original
// payload and not our typed view of it.
type Record[T any] struct {
	Row T
	Raw json.RawMessage
}

// DecodeRows decodes each raw row into T. Rows that fail to decode are
// dropped; the lenient field types make that rare, but a source
// occasionally slips a string where an object belongs.
func DecodeRows[T any](rows []json.RawMessage) []Record[T] {
	out := make([]Record[T], 0, len(rows))
	for _, raw := range rows {
		var row T
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		out = append(out, Record[T]{Row: row, Raw: raw})
	}
	return out
}
