package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-lostfound-api/internal/models"
)

func TestFoundItemRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFoundItemRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO found_items")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	item := &models.FoundItem{
		Name:         "black umbrella",
		Category:     "ACCESSORY",
		Campus:       "NORTH",
		Location:     "library entrance",
		RegisteredBy: "staff-1",
	}
	require.NoError(t, repo.Create(context.Background(), item))
	require.NotEmpty(t, item.ID)
	require.Equal(t, models.FoundItemStatusUnclaimed, item.Status)
	require.False(t, item.FoundAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFoundItemRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFoundItemRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "name", "category", "description", "campus", "location",
		"photo_url", "status", "registered_by", "found_at", "created_at", "updated_at",
	}).AddRow("item-1", "black umbrella", "ACCESSORY", "", "NORTH", "library entrance",
		nil, "UNCLAIMED", "staff-1", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("item-1").
		WillReturnRows(rows)

	item, err := repo.GetByID(context.Background(), "item-1")
	require.NoError(t, err)
	require.Equal(t, "item-1", item.ID)
	require.Equal(t, models.FoundItemStatusUnclaimed, item.Status)
	require.Nil(t, item.PhotoURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFoundItemRepositoryListCountsAndFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFoundItemRepository(db)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM found_items")).
		WithArgs("UNCLAIMED", "NORTH").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows([]string{
		"id", "name", "category", "description", "campus", "location",
		"photo_url", "status", "registered_by", "found_at", "created_at", "updated_at",
	}).AddRow("item-1", "black umbrella", "ACCESSORY", "", "NORTH", "library entrance",
		nil, "UNCLAIMED", "staff-1", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("UNCLAIMED", "NORTH").
		WillReturnRows(rows)

	items, total, err := repo.List(context.Background(), models.FoundItemFilter{
		Status: []models.FoundItemStatus{models.FoundItemStatusUnclaimed},
		Campus: "NORTH",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, items, 1)
	require.Equal(t, "item-1", items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFoundItemRepositoryUpdateStatusConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFoundItemRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE found_items SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "item-1",
		models.FoundItemStatusUnclaimed, models.FoundItemStatusDisposed)
	require.ErrorIs(t, err, ErrItemConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}
