package database_test

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musemate/backend/internal/adapters/database"
	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/repositories"
	"github.com/musemate/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/musemate/backend/pkg/errors"
)

var museumCols = []string{
	"id", "name", "city", "type", "description", "address", "established",
	"entry_fee", "booking_link", "contact", "website", "timings",
	"detailed_timings", "latitude", "longitude", "reviews", "pricing",
	"created_at", "updated_at",
}

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewFromDB(db), mock
}

func museumRow(id, name, city string) []driver.Value {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, name, city, "History", "A museum", "1 Main Rd", "1922",
		"₹50", "", "", "", "10:00 AM - 6:00 PM",
		[]byte(`{"monday":"Closed","tuesday":"10:00 AM - 6:00 PM"}`),
		"18.5204", nil,
		[]byte(`[{"user":"asha","rating":4,"comment":"lovely"}]`),
		nil, now, now,
	}
}

func TestMuseumAdapter_GetByID(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewMuseumAdapter(client, nil)
	ctx := context.Background()

	t.Run("maps json columns and coordinates", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(`SELECT .* FROM "museums" WHERE \("id" = 'm1'\)`).
			WillReturnRows(sqlmock.NewRows(museumCols).AddRow(museumRow("m1", "Kelkar Museum", "Pune")...))

		// Act
		museum, err := adapter.GetByID(ctx, "m1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Kelkar Museum", museum.Name)
		status, _ := museum.DayStatus(time.Monday)
		assert.Equal(t, entities.DayClosed, status)
		require.Len(t, museum.Reviews, 1)
		assert.Equal(t, 4, museum.Reviews[0].Rating)
		_, ok := museum.Location()
		assert.False(t, ok, "longitude is missing")
		assert.Nil(t, museum.Pricing)
	})

	t.Run("returns not found for no rows", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM "museums"`).WillReturnRows(sqlmock.NewRows(museumCols))

		museum, err := adapter.GetByID(ctx, "missing")

		assert.Nil(t, museum)
		assert.True(t, apperrors.IsNotFound(err))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMuseumAdapter_FindByName(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewMuseumAdapter(client, nil)

	mock.ExpectQuery(`WHERE \("name" ILIKE '%kelkar%'\) ORDER BY "name" ASC, "id" ASC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(museumCols).AddRow(museumRow("m1", "Kelkar Museum", "Pune")...))

	museum, err := adapter.FindByName(context.Background(), " kelkar ")

	require.NoError(t, err)
	assert.Equal(t, "m1", museum.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMuseumAdapter_FindByNameEscapesWildcards(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewMuseumAdapter(client, nil)

	mock.ExpectQuery(`ILIKE '%100\\+%%'`).WillReturnRows(sqlmock.NewRows(museumCols))

	_, err := adapter.FindByName(context.Background(), "100%")

	assert.True(t, apperrors.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMuseumAdapter_SearchText(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewMuseumAdapter(client, nil)
	ctx := context.Background()

	t.Run("ors every field for every term and limits rows", func(t *testing.T) {
		mock.ExpectQuery(`"name" ILIKE '%science%'\) OR \("description" ILIKE '%science%'\) OR \("city" ILIKE '%science%'\) OR \("type" ILIKE '%science%'\).* LIMIT 3`).
			WillReturnRows(sqlmock.NewRows(museumCols).
				AddRow(museumRow("m2", "Nehru Science Centre", "Mumbai")...))

		museums, err := adapter.SearchText(ctx, []string{"science"}, 3)

		require.NoError(t, err)
		require.Len(t, museums, 1)
		assert.Equal(t, "Nehru Science Centre", museums[0].Name)
	})

	t.Run("blank terms do not query", func(t *testing.T) {
		museums, err := adapter.SearchText(ctx, []string{" ", ""}, 3)

		require.NoError(t, err)
		assert.Empty(t, museums)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMuseumAdapter_ListFiltersByCityAndType(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewMuseumAdapter(client, nil)

	mock.ExpectQuery(`WHERE \(\(LOWER\("city"\) = 'pune'\) AND \(LOWER\("type"\) = 'art'\)\)`).
		WillReturnRows(sqlmock.NewRows(museumCols))

	museums, err := adapter.List(context.Background(), repositories.MuseumFilter{City: "Pune", Type: "Art"})

	require.NoError(t, err)
	assert.Empty(t, museums)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMuseumAdapter_Upsert(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewMuseumAdapter(client, nil)
	ctx := context.Background()

	t.Run("inserts with conflict update", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "museums" .* ON CONFLICT \(id\) DO UPDATE SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.Upsert(ctx, &entities.Museum{
			ID:              "m1",
			Name:            "Kelkar Museum",
			DetailedTimings: entities.WeeklyTimings{"monday": "Closed"},
			Latitude:        "18.5",
			Pricing:         &entities.Pricing{Adult: "₹50", Child: "₹20"},
		})

		require.NoError(t, err)
	})

	t.Run("rejects records without a name", func(t *testing.T) {
		err := adapter.Upsert(ctx, &entities.Museum{ID: "m2"})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMuseumAdapter_MalformedJSONColumnsAreDropped(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewMuseumAdapter(client, nil)

	row := museumRow("m1", "Kelkar Museum", "Pune")
	row[12] = []byte(`{"monday":"Closed","tuesday":5}`)
	row[15] = []byte(`[{"user":"asha","rating":"four"}]`)
	row[16] = []byte(`{"adult":`)
	mock.ExpectQuery(`SELECT .* FROM "museums"`).
		WillReturnRows(sqlmock.NewRows(museumCols).AddRow(row...))

	museum, err := adapter.GetByID(context.Background(), "m1")

	require.NoError(t, err)
	assert.Nil(t, museum.DetailedTimings, "a partially decoded schedule is not kept")
	status, _ := museum.DayStatus(time.Monday)
	assert.Equal(t, entities.DayUnknown, status)
	assert.Nil(t, museum.Reviews)
	assert.Nil(t, museum.Pricing)
	require.NoError(t, mock.ExpectationsWereMet())
}
