// Package enrich augments resolved payer/payee identities with details
// fetched live from an external place directory, healing stale external
// identifiers along the way.
package enrich

import (
	"context"
	"fmt"
)

// Lookup field names understood by the place details provider.
const (
	FieldAddress = "formatted_address"
	FieldPlaceID = "id"
)

// LookupStatus classifies a provider response.
type LookupStatus int

const (
	// StatusOK means the lookup succeeded and Data is populated.
	StatusOK LookupStatus = iota
	// StatusNotFound means the identifier is unknown to the provider.
	StatusNotFound
	// StatusError covers every other provider failure; ErrorStatus and
	// ErrorMessage carry the provider's detail.
	StatusError
)

// LookupData holds the fields a successful lookup returned.
type LookupData struct {
	PlaceID string
	Address string
}

// LookupResult is the provider's answer for one identifier.
type LookupResult struct {
	Status       LookupStatus
	Data         LookupData
	ErrorStatus  string
	ErrorMessage string
}

// Provider is the external place directory the enricher consults.
type Provider interface {
	Lookup(ctx context.Context, externalID string, fields ...string) (*LookupResult, error)
}

// Error is returned when the provider answers with an unexpected or
// unrecoverable status, or when a refresh comes back without an
// identifier.
type Error struct {
	Status  string
	Message string
}

func (e *Error) Error() string {
	if e.Status == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (provider status %s)", e.Message, e.Status)
}

// DefunctExternalIDError is terminal: the stored external identifier can
// never be refreshed again.
type DefunctExternalIDError struct {
	ExternalID string
}

func (e *DefunctExternalIDError) Error() string {
	return fmt.Sprintf("external identifier %s can no longer be refreshed", e.ExternalID)
}
