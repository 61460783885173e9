// Package domain contains the core data types for the ParkShield API.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tag is the registered binding between a vehicle, an owner phone number,
// and a public short code. The code (TagID) is what gets printed on the QR
// sticker; it is globally unique and immutable once assigned.
//
// OwnerPhone must never be exposed except through the Contact projection,
// and must never appear in logs.
type Tag struct {
	// ID is the internal row key. It never leaves the backend.
	ID uuid.UUID

	// TagID is the public short code, unique across all tags.
	TagID string

	// VehicleNumber is the free-text plate/vehicle identifier,
	// immutable after registration.
	VehicleNumber string

	// OwnerPhone is the private contact number in E.164 form.
	OwnerPhone string

	// Active gates all scan-lookup and alert operations.
	// Deactivation is permanent; there is no reactivation path.
	Active bool

	CreatedAt time.Time
}

// Contact is the minimal public view of a tag returned to a scanner.
// It deliberately excludes the alert history, creation time, and active flag.
type Contact struct {
	VehicleNumber string `json:"vehicleNumber"`
	OwnerPhone    string `json:"ownerPhone"`
}

// Contact projects the tag into its public contact view. This is the only
// code path allowed to surface OwnerPhone outside the system boundary, and
// it is invoked solely by the scan-lookup operation.
func (t Tag) Contact() Contact {
	return Contact{
		VehicleNumber: t.VehicleNumber,
		OwnerPhone:    t.OwnerPhone,
	}
}
