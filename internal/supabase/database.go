package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"listing-site-backend/internal/database"
	"listing-site-backend/internal/models"
)

const listingColumns = `id, owner_id, title, description, price, location, area, rooms,
	completion_date, broker_phone, broker_email, broker_telegram, style_key, style_name,
	document, media, created_at, updated_at`

var _ database.Repository = (*DatabaseClient)(nil)

// DatabaseClient keeps listings in the project's PostgreSQL database.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// DB exposes the connection for migrations.
func (d *DatabaseClient) DB() *sql.DB {
	return d.db
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func (d *DatabaseClient) Create(ctx context.Context, l *models.Listing) (int64, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	f := l.Fields
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO listings (owner_id, title, description, price, location, area, rooms,
			completion_date, broker_phone, broker_email, broker_telegram, style_key, style_name,
			document, media, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
		RETURNING id, updated_at
	`, l.OwnerID, f.Title, f.Description, f.Price, f.Location, f.Area, f.Rooms,
		f.CompletionDate, f.BrokerPhone, f.BrokerEmail, f.BrokerTelegram, l.StyleKey, l.StyleName,
		l.Document, manifest(l.Media), l.CreatedAt,
	).Scan(&l.ID, &l.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create listing: %w", err)
	}

	return l.ID, nil
}

func (d *DatabaseClient) Get(ctx context.Context, id, ownerID int64) (*models.Listing, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	return scanListing(row)
}

func (d *DatabaseClient) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE id = $1
	`, id)
	return scanListing(row)
}

func (d *DatabaseClient) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.Listing, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, ownerID, lim)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	return listings, nil
}

func (d *DatabaseClient) Replace(ctx context.Context, l *models.Listing) error {
	f := l.Fields
	err := d.db.QueryRowContext(ctx, `
		UPDATE listings
		SET title = $1, description = $2, price = $3, location = $4, area = $5, rooms = $6,
			completion_date = $7, broker_phone = $8, broker_email = $9, broker_telegram = $10,
			style_key = $11, style_name = $12, document = $13, media = $14, updated_at = NOW()
		WHERE id = $15 AND owner_id = $16
		RETURNING updated_at
	`, f.Title, f.Description, f.Price, f.Location, f.Area, f.Rooms,
		f.CompletionDate, f.BrokerPhone, f.BrokerEmail, f.BrokerTelegram,
		l.StyleKey, l.StyleName, l.Document, manifest(l.Media), l.ID, l.OwnerID,
	).Scan(&l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return database.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to replace listing: %w", err)
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for leads.
func (d *DatabaseClient) Delete(ctx context.Context, id, ownerID int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) AddLead(ctx context.Context, lead *models.Lead) (int64, error) {
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO leads (listing_id, user_id, username, first_name, phone, email, message)
		SELECT id, $2, $3, $4, $5, $6, $7 FROM listings WHERE id = $1
		RETURNING id, created_at
	`, lead.ListingID, lead.UserID, lead.Username, lead.FirstName, lead.Phone, lead.Email, lead.Message,
	).Scan(&lead.ID, &lead.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, database.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add lead: %w", err)
	}
	return lead.ID, nil
}

func (d *DatabaseClient) ListLeads(ctx context.Context, listingID int64, limit int) ([]models.Lead, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, listing_id, user_id, username, first_name, phone, email, message, created_at
		FROM leads
		WHERE listing_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, listingID, lim)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var lead models.Lead
		err := rows.Scan(
			&lead.ID, &lead.ListingID, &lead.UserID, &lead.Username, &lead.FirstName,
			&lead.Phone, &lead.Email, &lead.Message, &lead.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	return leads, nil
}

func (d *DatabaseClient) UpsertUser(ctx context.Context, u *models.User) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, first_name = EXCLUDED.first_name
	`, u.ID, u.Username, u.FirstName)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*models.Listing, error) {
	var (
		l     models.Listing
		media []byte
	)
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Fields.Title, &l.Fields.Description, &l.Fields.Price,
		&l.Fields.Location, &l.Fields.Area, &l.Fields.Rooms, &l.Fields.CompletionDate,
		&l.Fields.BrokerPhone, &l.Fields.BrokerEmail, &l.Fields.BrokerTelegram,
		&l.StyleKey, &l.StyleName, &l.Document, &media, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	l.Media = media
	return &l, nil
}

func manifest(raw []byte) string {
	if len(raw) == 0 {
		return "[]"
	}
	return string(raw)
}
