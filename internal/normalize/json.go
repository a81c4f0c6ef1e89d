package normalize

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money is a decimal that decodes leniently from the shapes upstream
// portals actually emit: JSON numbers, locale strings ("1.234,56"),
// plain strings ("1234.56"), empty strings and null. Anything
// unparseable decodes to zero instead of failing the row.
type Money struct {
	decimal.Decimal
}

func MoneyOf(value decimal.Decimal) Money {
	return Money{Decimal: value}
}

func (m *Money) UnmarshalJSON(data []byte) error {
	text := string(data)
	if text == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	if len(text) > 0 && text[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			m.Decimal = decimal.Zero
			return nil
		}
		m.Decimal = MoneyFromString(raw)
		return nil
	}
	parsed, err := decimal.NewFromString(text)
	if err != nil {
		m.Decimal = decimal.Zero
		return nil
	}
	m.Decimal = parsed
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.StringFixed(2)), nil
}

// String decodes JSON fields that sources emit either as strings or as
// bare numbers (registration numbers, process numbers, years).
type String string

func (s *String) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*s = String(raw)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err == nil {
		*s = String(number.String())
		return nil
	}
	*s = ""
	return nil
}

func (s String) String() string {
	return string(s)
}
