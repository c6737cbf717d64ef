package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/repositories"
	"github.com/musemate/backend/internal/infrastructure/clients/postgres"
	"github.com/musemate/backend/internal/infrastructure/observability"
	apperrors "github.com/musemate/backend/pkg/errors"
)

const museumsTable = "museums"

var museumColumns = []interface{}{
	"id", "name", "city", "type", "description", "address", "established",
	"entry_fee", "booking_link", "contact", "website", "timings",
	"detailed_timings", "latitude", "longitude", "reviews", "pricing",
	"created_at", "updated_at",
}

// MuseumAdapter implements MuseumRepository on PostgreSQL
type MuseumAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewMuseumAdapter creates a new museum adapter; metrics may be nil
func NewMuseumAdapter(client *postgres.Client, metrics *observability.Metrics) *MuseumAdapter {
	return &MuseumAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

var (
	_ repositories.MuseumRepository = (*MuseumAdapter)(nil)
	_ repositories.MuseumWriter     = (*MuseumAdapter)(nil)
)

// List retrieves museums in name order
func (a *MuseumAdapter) List(ctx context.Context, filter repositories.MuseumFilter) ([]*entities.Museum, error) {
	ds := a.selectMuseums()
	if filter.City != "" {
		ds = ds.Where(goqu.Func("LOWER", goqu.C("city")).Eq(strings.ToLower(filter.City)))
	}
	if filter.Type != "" {
		ds = ds.Where(goqu.Func("LOWER", goqu.C("type")).Eq(strings.ToLower(filter.Type)))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}
	return a.query(ctx, "museums.list", ds, "failed to list museums")
}

// GetByID retrieves a museum by ID
func (a *MuseumAdapter) GetByID(ctx context.Context, id string) (*entities.Museum, error) {
	museums, err := a.query(ctx, "museums.get", a.selectMuseums().Where(goqu.Ex{"id": id}).Limit(1), "failed to get museum")
	if err != nil {
		return nil, err
	}
	if len(museums) == 0 {
		return nil, apperrors.NewNotFoundError("museum not found")
	}
	return museums[0], nil
}

// GetByIDs retrieves multiple museums by exact id
func (a *MuseumAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Museum, error) {
	if len(ids) == 0 {
		return []*entities.Museum{}, nil
	}
	return a.query(ctx, "museums.get_many", a.selectMuseums().Where(goqu.Ex{"id": ids}), "failed to get museums by ids")
}

// FindByName returns the first museum whose name contains name
func (a *MuseumAdapter) FindByName(ctx context.Context, name string) (*entities.Museum, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewNotFoundError("museum not found")
	}
	ds := a.selectMuseums().Where(goqu.C("name").ILike(likePattern(name))).Limit(1)
	museums, err := a.query(ctx, "museums.find_by_name", ds, "failed to find museum by name")
	if err != nil {
		return nil, err
	}
	if len(museums) == 0 {
		return nil, apperrors.NewNotFoundError("museum not found")
	}
	return museums[0], nil
}

// ListByCity returns museums whose city contains city
func (a *MuseumAdapter) ListByCity(ctx context.Context, city string, limit int) ([]*entities.Museum, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return []*entities.Museum{}, nil
	}
	ds := a.selectMuseums().Where(goqu.C("city").ILike(likePattern(city)))
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return a.query(ctx, "museums.list_by_city", ds, "failed to list museums by city")
}

// SearchText ORs substring matches over name, description, city and type for every term
func (a *MuseumAdapter) SearchText(ctx context.Context, terms []string, limit int) ([]*entities.Museum, error) {
	var conditions []exp.Expression
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		pattern := likePattern(term)
		conditions = append(conditions,
			goqu.C("name").ILike(pattern),
			goqu.C("description").ILike(pattern),
			goqu.C("city").ILike(pattern),
			goqu.C("type").ILike(pattern),
		)
	}
	if len(conditions) == 0 {
		return []*entities.Museum{}, nil
	}

	ds := a.selectMuseums().Where(goqu.Or(conditions...))
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return a.query(ctx, "museums.search_text", ds, "failed to search museums")
}

// Upsert inserts or replaces a museum record
func (a *MuseumAdapter) Upsert(ctx context.Context, museum *entities.Museum) error {
	record, err := museumRecord(museum)
	if err != nil {
		return apperrors.NewValidationError("invalid museum record: " + err.Error())
	}

	update := goqu.Record{}
	for col := range record {
		if col == "id" || col == "created_at" {
			continue
		}
		update[col] = goqu.L("EXCLUDED." + col)
	}

	query, args, err := a.db.Insert(museumsTable).
		Rows(record).
		OnConflict(goqu.DoUpdate("id", update)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	ctx, done := observe(ctx, a.metrics, "museums.upsert")
	_, err = a.client.DB().ExecContext(ctx, query, args...)
	done(err)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert museum", err)
	}
	return nil
}

func (a *MuseumAdapter) selectMuseums() *goqu.SelectDataset {
	return a.db.Select(museumColumns...).
		From(museumsTable).
		Order(goqu.C("name").Asc(), goqu.C("id").Asc())
}

func (a *MuseumAdapter) query(ctx context.Context, operation string, ds *goqu.SelectDataset, failure string) (_ []*entities.Museum, err error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	ctx, done := observe(ctx, a.metrics, operation)
	defer func() { done(err) }()

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError(failure, err)
	}
	defer rows.Close()

	museums := []*entities.Museum{}
	for rows.Next() {
		museum, err := scanMuseum(rows)
		if err != nil {
			return nil, err
		}
		museums = append(museums, museum)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError(failure, err)
	}
	return museums, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMuseum(row rowScanner) (*entities.Museum, error) {
	museum := &entities.Museum{}
	var latitude, longitude sql.NullString
	var timingsJSON, reviewsJSON, pricingJSON []byte

	err := row.Scan(
		&museum.ID,
		&museum.Name,
		&museum.City,
		&museum.Type,
		&museum.Description,
		&museum.Address,
		&museum.Established,
		&museum.EntryFee,
		&museum.BookingLink,
		&museum.Contact,
		&museum.Website,
		&museum.Timings,
		&timingsJSON,
		&latitude,
		&longitude,
		&reviewsJSON,
		&pricingJSON,
		&museum.CreatedAt,
		&museum.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("museum not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan museum", err)
	}

	museum.Latitude = entities.Coordinate(latitude.String)
	museum.Longitude = entities.Coordinate(longitude.String)

	// Malformed JSON columns degrade to missing data rather than failing the row.
	if len(timingsJSON) > 0 {
		var timings entities.WeeklyTimings
		if json.Unmarshal(timingsJSON, &timings) == nil {
			museum.DetailedTimings = timings
		}
	}
	if len(reviewsJSON) > 0 {
		var reviews []entities.Review
		if json.Unmarshal(reviewsJSON, &reviews) == nil {
			museum.Reviews = reviews
		}
	}
	if len(pricingJSON) > 0 && string(pricingJSON) != "null" {
		pricing := &entities.Pricing{}
		if json.Unmarshal(pricingJSON, pricing) == nil {
			museum.Pricing = pricing
		}
	}
	return museum, nil
}

func museumRecord(m *entities.Museum) (goqu.Record, error) {
	if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.Name) == "" {
		return nil, errors.New("id and name are required")
	}

	reviews := m.Reviews
	if reviews == nil {
		reviews = []entities.Review{}
	}
	reviewsJSON, err := json.Marshal(reviews)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	return goqu.Record{
		"id":               m.ID,
		"name":             m.Name,
		"city":             m.City,
		"type":             m.Type,
		"description":      m.Description,
		"address":          m.Address,
		"established":      m.Established,
		"entry_fee":        m.EntryFee,
		"booking_link":     m.BookingLink,
		"contact":          m.Contact,
		"website":          m.Website,
		"timings":          m.Timings,
		"detailed_timings": nullableJSON(m.DetailedTimings, len(m.DetailedTimings) == 0),
		"latitude":         sql.NullString{String: string(m.Latitude), Valid: m.Latitude != ""},
		"longitude":        sql.NullString{String: string(m.Longitude), Valid: m.Longitude != ""},
		"reviews":          string(reviewsJSON),
		"pricing":          nullableJSON(m.Pricing, m.Pricing == nil),
		"created_at":       createdAt,
		"updated_at":       now,
	}, nil
}

func nullableJSON(v interface{}, empty bool) sql.NullString {
	if empty {
		return sql.NullString{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
