package domain

import (
	"time"

	"github.com/google/uuid"
)

// AlertKind classifies what the scanner is reporting.
type AlertKind string

const (
	// KindBlocking — the vehicle is blocking the scanner's way.
	KindBlocking AlertKind = "blocking"
	// KindLightsOn — the vehicle's lights were left on.
	KindLightsOn AlertKind = "lights-on"
	// KindEmergency — something urgent (towing, damage, fire).
	KindEmergency AlertKind = "emergency"
	// KindCustom — free-text message chosen by the scanner.
	// A custom alert requires a non-empty message.
	KindCustom AlertKind = "custom"
)

// Valid reports whether k is one of the defined alert kinds.
func (k AlertKind) Valid() bool {
	switch k {
	case KindBlocking, KindLightsOn, KindEmergency, KindCustom:
		return true
	}
	return false
}

// AlertRequest carries one inbound alert through the acceptance pipeline.
// Kind is kept as a raw string here; the service parses and validates it.
type AlertRequest struct {
	// Code is the public tag code the scanner hit.
	Code          string
	Kind          string
	Message       string
	OriginAddress string
}

// Alert is one entry in a tag's append-only alert ledger.
// Once stored, an alert is never mutated: the ledger only grows.
type Alert struct {
	ID uuid.UUID `json:"id"`

	// TagID is the internal row key of the owning tag (tags.id, not the
	// public short code).
	TagID uuid.UUID `json:"-"`

	Kind AlertKind `json:"kind"`

	// Message is optional free text; required when Kind is KindCustom.
	Message string `json:"message,omitempty"`

	// OriginAddress is the best-effort network origin of the scanner.
	OriginAddress string `json:"originAddress,omitempty"`

	// CreatedAt is assigned by the server at acceptance, never by the client.
	CreatedAt time.Time `json:"createdAt"`
}
