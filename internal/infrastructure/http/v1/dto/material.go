package dto

import (
	"atelier/internal/core/types"
	"atelier/internal/domain/catalogs/material"
)

// StocktakeRequest sets the counted quantity of a material.
type StocktakeRequest struct {
	Quantity *types.Quantity `json:"quantity" binding:"required"`
}

// QuantityProbe detects a quantity in a material update body.
type QuantityProbe struct {
	Quantity *types.Quantity `json:"quantity"`
}

// LowStockResponse lists materials at or below their threshold.
type LowStockResponse struct {
	Items []*material.Material `json:"items"`
}
