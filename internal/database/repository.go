package database

import (
	"context"
	"errors"

	"listing-site-backend/internal/models"
)

// ErrNotFound is returned when a requested row does not exist or belongs to
// another owner.
var ErrNotFound = errors.New("not found")

// Repository persists listings, their leads and known users.
type Repository interface {
	// Create stores a new listing and returns its id. Ids are assigned in
	// increasing order.
	Create(ctx context.Context, l *models.Listing) (int64, error)
	Get(ctx context.Context, id, ownerID int64) (*models.Listing, error)
	GetByID(ctx context.Context, id int64) (*models.Listing, error)
	// ListByOwner returns up to limit listings, newest first.
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.Listing, error)
	// Replace overwrites content of an existing listing keeping its id.
	Replace(ctx context.Context, l *models.Listing) error
	// Delete removes a listing of the owner together with its leads.
	Delete(ctx context.Context, id, ownerID int64) error
	AddLead(ctx context.Context, lead *models.Lead) (int64, error)
	ListLeads(ctx context.Context, listingID int64, limit int) ([]models.Lead, error)
	UpsertUser(ctx context.Context, u *models.User) error
	Close() error
}
