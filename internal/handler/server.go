// Package handler implements the HTTP handlers for the ParkShield API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, tag.go) but all share the same Server struct so they can
// access its dependencies.
package handler

import (
	"context"

	"github.com/parkshield/backend/internal/domain"
)

// TagServicer defines the business operations the tag handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TagServicer interface {
	Register(ctx context.Context, vehicleNumber, ownerPhone, code string) (domain.Tag, error)
	Lookup(ctx context.Context, code string) (domain.Contact, error)
	Alert(ctx context.Context, req domain.AlertRequest) (domain.Alert, error)
	History(ctx context.Context, code string, p domain.PaginationParams) ([]domain.Alert, int64, error)
	Deactivate(ctx context.Context, code string) error
}

// Server holds the handler dependencies for all API endpoints.
// Wire it in main.go via Server.Routes().
type Server struct {
	tags TagServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(tags TagServicer) *Server {
	return &Server{tags: tags}
}
