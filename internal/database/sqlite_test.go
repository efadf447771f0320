package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-site-backend/internal/database"
	"listing-site-backend/internal/models"
)

func openRepo(t *testing.T) *database.SQLiteRepository {
	t.Helper()
	repo, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "listings.db"), 2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newListing(owner int64, title string) *models.Listing {
	f := models.NewFields()
	f.Title = title
	f.Description = "desc"
	return &models.Listing{
		OwnerID:   owner,
		Fields:    f,
		StyleKey:  "universal",
		StyleName: "Universal",
		Document:  "<html></html>",
		Media:     []byte(`[]`),
	}
}

func TestCreate_AssignsIncreasingIDs(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	id1, err := repo.Create(ctx, newListing(1, "first"))
	require.NoError(t, err)
	id2, err := repo.Create(ctx, newListing(1, "second"))
	require.NoError(t, err)

	assert.Greater(t, id2, id1)
}

func TestGet_ChecksOwner(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	l := newListing(7, "Sunny Loft")
	l.Fields.BrokerPhone = "+1 555 000 1111"
	id, err := repo.Create(ctx, l)
	require.NoError(t, err)

	got, err := repo.Get(ctx, id, 7)
	require.NoError(t, err)
	assert.Equal(t, "Sunny Loft", got.Fields.Title)
	assert.Equal(t, "+1 555 000 1111", got.Fields.BrokerPhone)
	assert.Equal(t, models.NotSpecified, got.Fields.Area)
	assert.JSONEq(t, `[]`, string(got.Media))

	_, err = repo.Get(ctx, id, 8)
	assert.ErrorIs(t, err, database.ErrNotFound)

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), byID.OwnerID)

	_, err = repo.GetByID(ctx, id+100)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestListByOwner_NewestFirstWithLimit(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, newListing(1, title))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newListing(2, "other"))
	require.NoError(t, err)

	list, err := repo.ListByOwner(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].Fields.Title)
	assert.Equal(t, "b", list[1].Fields.Title)

	none, err := repo.ListByOwner(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReplace_KeepsID(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	l := newListing(1, "before")
	id, err := repo.Create(ctx, l)
	require.NoError(t, err)

	l.Fields.Title = "after"
	l.Document = "<html>after</html>"
	require.NoError(t, repo.Replace(ctx, l))

	got, err := repo.Get(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Fields.Title)
	assert.Equal(t, "<html>after</html>", got.Document)

	missing := newListing(1, "ghost")
	missing.ID = id + 50
	assert.ErrorIs(t, repo.Replace(ctx, missing), database.ErrNotFound)
}

func TestDelete_RemovesListingAndLeads(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newListing(1, "doomed"))
	require.NoError(t, err)
	_, err = repo.AddLead(ctx, &models.Lead{ListingID: id, UserID: 42, Message: "call me"})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, id, 2), database.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, id, 1))

	_, err = repo.Get(ctx, id, 1)
	assert.ErrorIs(t, err, database.ErrNotFound)
	leads, err := repo.ListLeads(ctx, id, 10)
	require.NoError(t, err)
	assert.Empty(t, leads)

	assert.ErrorIs(t, repo.Delete(ctx, id, 1), database.ErrNotFound)
}

func TestLeads(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newListing(1, "with leads"))
	require.NoError(t, err)

	_, err = repo.AddLead(ctx, &models.Lead{ListingID: id, UserID: 42, Username: "buyer", Phone: "+1 555 123 4567", Message: "call me"})
	require.NoError(t, err)
	_, err = repo.AddLead(ctx, &models.Lead{ListingID: id, UserID: 43, Email: "b@example.com", Message: "mail me"})
	require.NoError(t, err)

	leads, err := repo.ListLeads(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, int64(43), leads[0].UserID)
	assert.Equal(t, "b@example.com", leads[0].Email)

	_, err = repo.AddLead(ctx, &models.Lead{ListingID: id + 99, UserID: 1, Message: "orphan"})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestUpsertUser(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertUser(ctx, &models.User{ID: 5, Username: "old"}))
	require.NoError(t, repo.UpsertUser(ctx, &models.User{ID: 5, Username: "new", FirstName: "Ann"}))
}
