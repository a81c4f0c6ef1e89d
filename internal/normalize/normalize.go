package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var nonDigits = regexp.MustCompile(`\D+`)

// Text collapses internal whitespace, trims and upper-cases a free-form
// name so that cosmetic variations of the same entity compare equal.
func Text(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), " "))
}

// CNPJ strips everything but digits from a CNPJ/CPF string.
func CNPJ(value string) string {
	return nonDigits.ReplaceAllString(value, "")
}

// ValidCNPJ reports whether value carries 14 digits with correct check
// digits. Invalid documents are never rejected by the pipeline; this only
// feeds data-quality figures.
func ValidCNPJ(value string) bool {
	digits := CNPJ(value)
	if len(digits) != 14 {
		return false
	}
	allEqual := true
	for i := 1; i < 14; i++ {
		if digits[i] != digits[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return false
	}
	return checkDigit(digits, 12) == int(digits[12]-'0') &&
		checkDigit(digits, 13) == int(digits[13]-'0')
}

func checkDigit(digits string, position int) int {
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	offset := len(weights) - position
	sum := 0
	for i := 0; i < position; i++ {
		sum += int(digits[i]-'0') * weights[offset+i]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

// FornecedorKey builds the supplier dedupe key: the digits of the CNPJ
// when present, otherwise the normalized name.
func FornecedorKey(nome, cnpj string) string {
	if digits := CNPJ(cnpj); digits != "" {
		return "cnpj:" + digits
	}
	return "nome:" + Text(nome)
}

// ServidorKey builds the employee dedupe key: the registration number when
// present, otherwise a composite of name, organ and employment type.
func ServidorKey(nome, orgao, vinculo, matricula string) string {
	if mat := Text(matricula); mat != "" {
		return "mat:" + mat
	}
	return Text(nome) + "|" + Text(orgao) + "|" + Text(vinculo)
}

// Orgao drops annotation tails like " - CC" or " - EF" that payroll
// exports append to organ names.
func Orgao(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.Index(value, " - "); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}

// MoneyFromString parses a Brazilian-locale monetary string
// ("1.234,56") into a decimal. Plain "1234.56" also parses. Empty or
// malformed input yields zero, never an error: upstream payloads mix
// formats row by row and a bad cell must not abort a load.
func MoneyFromString(value string) decimal.Decimal {
	text := strings.TrimSpace(value)
	if text == "" {
		return decimal.Zero
	}
	if strings.Contains(text, ",") {
		text = strings.ReplaceAll(text, ".", "")
		text = strings.ReplaceAll(text, ",", ".")
	}
	parsed, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

// Round2 rounds to two decimal places, half away from zero. All monetary
// comparisons in the validator go through this.
func Round2(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

// DateBR parses "dd/mm/yyyy", ignoring any time-of-day suffix after a
// space. Returns nil on failure.
func DateBR(value string) *time.Time {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil
	}
	if idx := strings.IndexByte(text, ' '); idx >= 0 {
		text = text[:idx]
	}
	parsed, err := time.Parse("02/01/2006", text)
	if err != nil {
		return nil
	}
	return &parsed
}

// DateISO parses "yyyy-mm-dd", with or without a time component.
// Returns nil on failure.
func DateISO(value string) *time.Time {
	text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "Z"))
	if text == "" {
		return nil
	}
	if len(text) > 10 {
		text = text[:10]
	}
	parsed, err := time.Parse("2006-01-02", text)
	if err != nil {
		return nil
	}
	return &parsed
}

// Year extracts a 4-digit exercise year from a string, 0 when absent.
func Year(value string) int {
	text := strings.TrimSpace(value)
	if text == "" {
		return 0
	}
	year, err := strconv.Atoi(text)
	if err != nil || year < 1900 || year > 2200 {
		return 0
	}
	return year
}
