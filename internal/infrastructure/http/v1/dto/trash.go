package dto

import (
	"atelier/internal/domain/softdelete"
)

// TrashResponse lists every soft-deleted record.
type TrashResponse struct {
	Items []softdelete.Entry `json:"items"`
	// Failed names collections that could not be read.
	Failed []softdelete.EntityType `json:"failed,omitempty"`
}
