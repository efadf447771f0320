package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"

	"listing-site-backend/internal/models"
)

var sqliteSchema = sqlitemigration.Schema{
	Migrations: []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);
		CREATE TABLE listings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			area TEXT NOT NULL DEFAULT '',
			rooms TEXT NOT NULL DEFAULT '',
			completion_date TEXT NOT NULL DEFAULT '',
			broker_phone TEXT NOT NULL DEFAULT '',
			broker_email TEXT NOT NULL DEFAULT '',
			broker_telegram TEXT NOT NULL DEFAULT '',
			style_key TEXT NOT NULL,
			style_name TEXT NOT NULL DEFAULT '',
			document TEXT NOT NULL DEFAULT '',
			media TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX idx_listings_owner ON listings (owner_id, created_at DESC);
		CREATE TABLE leads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			listing_id INTEGER NOT NULL REFERENCES listings (id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);
		CREATE INDEX idx_leads_listing ON leads (listing_id, created_at DESC);`,
	},
}

const listingColumns = `id, owner_id, title, description, price, location, area, rooms,
	completion_date, broker_phone, broker_email, broker_telegram, style_key, style_name,
	document, media, created_at, updated_at`

var _ Repository = (*SQLiteRepository)(nil)

// SQLiteRepository is the local record store.
type SQLiteRepository struct {
	pool *sqlitex.Pool
	now  func() time.Time
	log  *zap.Logger
}

// OpenSQLite opens (creating when necessary) the database at path and brings
// its schema up to date.
func OpenSQLite(ctx context.Context, path string, poolSize int, log *zap.Logger) (*SQLiteRepository, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteTransient(conn, "PRAGMA foreign_keys = ON;", nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database %q: %w", path, err)
	}

	repo := &SQLiteRepository{pool: pool, now: time.Now, log: log.Named("sqlite")}
	if err := repo.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	repo.log.Debug("Database ready", zap.String("path", path))
	return repo, nil
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("unable to get connection: %w", err)
	}
	defer r.pool.Put(conn)

	if err := sqlitemigration.Migrate(ctx, conn, sqliteSchema); err != nil {
		return fmt.Errorf("unable to migrate database: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.pool.Close()
}

func (r *SQLiteRepository) Create(ctx context.Context, l *models.Listing) (id int64, err error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("unable to get connection: %w", err)
	}
	defer r.pool.Put(conn)

	if l.CreatedAt.IsZero() {
		l.CreatedAt = r.now()
	}
	l.UpdatedAt = l.CreatedAt
	media := string(l.Media)
	if media == "" {
		media = "[]"
	}

	f := l.Fields
	err = sqlitex.Execute(conn, `INSERT INTO listings (owner_id, title, description, price, location,
			area, rooms, completion_date, broker_phone, broker_email, broker_telegram,
			style_key, style_name, document, media, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			l.OwnerID, f.Title, f.Description, f.Price, f.Location,
			f.Area, f.Rooms, f.CompletionDate, f.BrokerPhone, f.BrokerEmail, f.BrokerTelegram,
			l.StyleKey, l.StyleName, l.Document, media,
			l.CreatedAt.UnixMilli(), l.UpdatedAt.UnixMilli(),
		}})
	if err != nil {
		return 0, fmt.Errorf("failed to create listing: %w", err)
	}

	l.ID = conn.LastInsertRowID()
	return l.ID, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id, ownerID int64) (*models.Listing, error) {
	return r.getOne(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ? AND owner_id = ?`, id, ownerID)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	return r.getOne(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, args ...any) (*models.Listing, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get connection: %w", err)
	}
	defer r.pool.Put(conn)

	var found *models.Listing
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = scanListing(stmt)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]models.Listing, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get connection: %w", err)
	}
	defer r.pool.Put(conn)

	if limit <= 0 {
		limit = -1
	}

	var listings []models.Listing
	err = sqlitex.Execute(conn,
		`SELECT `+listingColumns+` FROM listings WHERE owner_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{ownerID, limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				listings = append(listings, *scanListing(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

func (r *SQLiteRepository) Replace(ctx context.Context, l *models.Listing) (err error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("unable to get connection: %w", err)
	}
	defer r.pool.Put(conn)

	l.UpdatedAt = r.now()
	media := string(l.Media)
	if media == "" {
		media = "[]"
	}

	f := l.Fields
	err = sqlitex.Execute(conn, `UPDATE listings SET title = ?, description = ?, price = ?, location = ?,
			area = ?, rooms = ?, completion_date = ?, broker_phone = ?, broker_email = ?,
			broker_telegram = ?, style_key = ?, style_name = ?, document = ?, media = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		&sqlitex.ExecOptions{Args: []any{
			f.Title, f.Description, f.Price, f.Location,
			f.Area, f.Rooms, f.CompletionDate, f.BrokerPhone, f.BrokerEmail,
			f.BrokerTelegram, l.StyleKey, l.StyleName, l.Document, media, l.UpdatedAt.UnixMilli(),
			l.ID, l.OwnerID,
		}})
	if err != nil {
		return fmt.Errorf("failed to replace listing: %w", err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id, ownerID int64) (err error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("unable to get connection: %w", err)
	}
	defer r.pool.Put(conn)

	defer sqlitex.Save(conn)(&err)

	err = sqlitex.Execute(conn, `DELETE FROM leads WHERE listing_id IN (SELECT id FROM listings WHERE id = ? AND owner_id = ?)`,
		&sqlitex.ExecOptions{Args: []any{id, ownerID}})
	if err != nil {
		return fmt.Errorf("failed to delete leads: %w", err)
	}
	err = sqlitex.Execute(conn, `DELETE FROM listings WHERE id = ? AND owner_id = ?`,
		&sqlitex.ExecOptions{Args: []any{id, ownerID}})
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) AddLead(ctx context.Context, lead *models.Lead) (id int64, err error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("unable to get connection: %w", err)
	}
	defer r.pool.Put(conn)

	defer sqlitex.Save(conn)(&err)

	exists := false
	err = sqlitex.Execute(conn, `SELECT 1 FROM listings WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{lead.ListingID},
		ResultFunc: func(*sqlite.Stmt) error {
			exists = true
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to check listing: %w", err)
	}
	if !exists {
		return 0, ErrNotFound
	}

	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = r.now()
	}
	err = sqlitex.Execute(conn, `INSERT INTO leads (listing_id, user_id, username, first_name, phone, email, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			lead.ListingID, lead.UserID, lead.Username, lead.FirstName,
			lead.Phone, lead.Email, lead.Message, lead.CreatedAt.UnixMilli(),
		}})
	if err != nil {
		return 0, fmt.Errorf("failed to add lead: %w", err)
	}

	lead.ID = conn.LastInsertRowID()
	return lead.ID, nil
}

func (r *SQLiteRepository) ListLeads(ctx context.Context, listingID int64, limit int) ([]models.Lead, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get connection: %w", err)
	}
	defer r.pool.Put(conn)

	if limit <= 0 {
		limit = -1
	}

	var leads []models.Lead
	err = sqlitex.Execute(conn, `SELECT id, listing_id, user_id, username, first_name, phone, email, message, created_at
		FROM leads WHERE listing_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{listingID, limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				leads = append(leads, models.Lead{
					ID:        stmt.ColumnInt64(0),
					ListingID: stmt.ColumnInt64(1),
					UserID:    stmt.ColumnInt64(2),
					Username:  stmt.ColumnText(3),
					FirstName: stmt.ColumnText(4),
					Phone:     stmt.ColumnText(5),
					Email:     stmt.ColumnText(6),
					Message:   stmt.ColumnText(7),
					CreatedAt: time.UnixMilli(stmt.ColumnInt64(8)),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

func (r *SQLiteRepository) UpsertUser(ctx context.Context, u *models.User) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("unable to get connection: %w", err)
	}
	defer r.pool.Put(conn)

	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now()
	}
	err = sqlitex.Execute(conn, `INSERT INTO users (id, username, first_name, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET username = excluded.username, first_name = excluded.first_name`,
		&sqlitex.ExecOptions{Args: []any{u.ID, u.Username, u.FirstName, u.CreatedAt.UnixMilli()}})
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func scanListing(stmt *sqlite.Stmt) *models.Listing {
	return &models.Listing{
		ID:      stmt.ColumnInt64(0),
		OwnerID: stmt.ColumnInt64(1),
		Fields: models.Fields{
			Title:          stmt.ColumnText(2),
			Description:    stmt.ColumnText(3),
			Price:          stmt.ColumnText(4),
			Location:       stmt.ColumnText(5),
			Area:           stmt.ColumnText(6),
			Rooms:          stmt.ColumnText(7),
			CompletionDate: stmt.ColumnText(8),
			BrokerPhone:    stmt.ColumnText(9),
			BrokerEmail:    stmt.ColumnText(10),
			BrokerTelegram: stmt.ColumnText(11),
		},
		StyleKey:  stmt.ColumnText(12),
		StyleName: stmt.ColumnText(13),
		Document:  stmt.ColumnText(14),
		Media:     []byte(stmt.ColumnText(15)),
		CreatedAt: time.UnixMilli(stmt.ColumnInt64(16)),
		UpdatedAt: time.UnixMilli(stmt.ColumnInt64(17)),
	}
}
