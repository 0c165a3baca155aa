// Package model defines the core domain types shared across the engine.
package model

// PayerPayeeType indicates whether an identity is used as a payer
// (income source) or a payee (expense destination).
type PayerPayeeType string

const (
	// PayerPayeeTypePayer marks an identity as an income source.
	PayerPayeeTypePayer PayerPayeeType = "payer"
	// PayerPayeeTypePayee marks an identity as an expense destination.
	PayerPayeeTypePayee PayerPayeeType = "payee"
)

// Valid reports whether the type is one of the two known roles.
func (t PayerPayeeType) Valid() bool {
	return t == PayerPayeeTypePayer || t == PayerPayeeTypePayee
}

// PayerPayee is a deduplicated payer or payee identity. All records are
// partitioned by ProfileID; within one profile and type the pair
// (Name, ExternalID) is unique.
type PayerPayee struct {
	ID         string
	ProfileID  string
	Name       string
	Type       PayerPayeeType
	ExternalID string
}

// PayerPayeeDetails holds data fetched live from the external place
// directory. It is never persisted.
type PayerPayeeDetails struct {
	Address string
}

// PayerPayeeViewModel is what callers receive: the identity merged with
// any enriched details.
type PayerPayeeViewModel struct {
	ID         string
	Name       string
	ExternalID string
	Address    string
}
