// Package measurement provides customer measurement templates.
package measurement

import (
	"context"
	"strings"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/id"
)

// Measurement is a named set of body measurements for one customer.
type Measurement struct {
	entity.BaseEntity

	CustomerID id.ID   `db:"customer_id" json:"customerId"`
	Garment    string  `db:"garment" json:"garment"`
	Values     Values  `db:"measure_values" json:"values"`
	Notes      *string `db:"notes" json:"notes,omitempty"`
}

// NewMeasurement creates an empty measurement for a customer.
func NewMeasurement(customerID id.ID, garment string) *Measurement {
	return &Measurement{
		BaseEntity: entity.NewBaseEntity(),
		CustomerID: customerID,
		Garment:    garment,
		Values:     Values{},
	}
}

// Validate implements entity.Validatable interface.
func (m *Measurement) Validate(ctx context.Context) error {
	if id.IsNil(m.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if strings.TrimSpace(m.Garment) == "" {
		return apperror.NewValidation("garment is required").
			WithDetail("field", "garment")
	}
	if point, bad := m.Values.invalidPoint(); bad {
		return apperror.NewValidation("measurement points need a name and a non-negative size").
			WithDetail("field", "values."+point)
	}
	return nil
}

// DisplayFields implements entity.Record.
func (m *Measurement) DisplayFields() map[string]any {
	return map[string]any{
		"garment":    m.Garment,
		"customerId": m.CustomerID.String(),
		"points":     strings.Join(m.Values.Points(), ", "),
	}
}

// Clone returns a copy with its own values map.
func (m *Measurement) Clone() *Measurement {
	cp := *m
	cp.Values = m.Values.clone()
	return &cp
}
