package model

import "time"

// Transaction is the slice of a historical transaction the suggestion
// ranker needs: who was paid, under which category and subcategory.
// Full transaction semantics live outside this engine.
type Transaction struct {
	Date         time.Time
	ID           string
	ProfileID    string
	PayerPayeeID string
	Type         PayerPayeeType
	Category     string
	Subcategory  string
	Amount       float64
}
