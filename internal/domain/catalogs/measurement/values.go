package measurement

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Values maps a measurement point (chest, waist, sleeve...) to its size.
// Stored as a JSONB object.
type Values map[string]decimal.Decimal

// Scan implements sql.Scanner.
func (v *Values) Scan(src any) error {
	var raw []byte
	switch s := src.(type) {
	case nil:
		*v = Values{}
		return nil
	case []byte:
		raw = s
	case string:
		raw = []byte(s)
	default:
		return fmt.Errorf("scan measurement values: unsupported type %T", src)
	}

	out := Values{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("scan measurement values: %w", err)
		}
	}
	*v = out
	return nil
}

// Value implements driver.Valuer. Nil is written as an empty object.
func (v Values) Value() (driver.Value, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]decimal.Decimal(v))
}

// Points returns the measurement point names in order.
func (v Values) Points() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// invalidPoint returns the first point with a blank name or negative size.
func (v Values) invalidPoint() (string, bool) {
	for _, k := range v.Points() {
		if strings.TrimSpace(k) == "" || v[k].IsNegative() {
			return k, true
		}
	}
	return "", false
}

func (v Values) clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, d := range v {
		out[k] = d
	}
	return out
}
