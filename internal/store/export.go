package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// WriteCSV renders a slice of entity structs as semicolon-separated CSV,
// the dialect Brazilian spreadsheets expect. Headers come from the
// structs' json tags so the CSV columns match the API field names.
func WriteCSV(w io.Writer, rows any) error {
	value := reflect.ValueOf(rows)
	if value.Kind() != reflect.Slice {
		return fmt.Errorf("export: expected slice, got %s", value.Kind())
	}

	elemType := value.Type().Elem()
	if elemType.Kind() != reflect.Struct {
		return fmt.Errorf("export: expected slice of structs, got slice of %s", elemType.Kind())
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	headers := make([]string, 0, elemType.NumField())
	fields := make([]int, 0, elemType.NumField())
	for i := 0; i < elemType.NumField(); i++ {
		tag := elemType.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		headers = append(headers, tag)
		fields = append(fields, i)
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for i := 0; i < value.Len(); i++ {
		row := value.Index(i)
		record := make([]string, 0, len(fields))
		for _, idx := range fields {
			record = append(record, formatCell(row.Field(idx).Interface()))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatCell(value any) string {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.StringFixed(2)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format("2006-01-02")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
