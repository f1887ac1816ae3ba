// internal/adapter/storage/place_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"locbook/internal/domain/place"
)

const summaryColumns = `
	id, name, address, categories, vibes, meal_types, occasions, mood,
	rating, price_level, status, google_maps_url, local_image_path,
	lat, lng, created_at`

const detailColumns = summaryColumns + `,
	opening_hours, popular_times, comment`

// PlaceStore implements place.Store on PostgreSQL
type PlaceStore struct {
	db *pgxpool.Pool
}

// NewPlaceStore creates a new place store
func NewPlaceStore(db *pgxpool.Pool) *PlaceStore {
	return &PlaceStore{
		db: db,
	}
}

// buildListQuery returns the page query, the count query and their shared args
func buildListQuery(q place.ListQuery) (string, string, []interface{}) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")

	args := []interface{}{}
	argIndex := 1

	// Same fields the admin search box covers
	if q.Search != "" {
		where.WriteString(fmt.Sprintf(
			" AND (name ILIKE $%[1]d OR address ILIKE $%[1]d"+
				" OR array_to_string(categories, ' ') ILIKE $%[1]d"+
				" OR array_to_string(meal_types, ' ') ILIKE $%[1]d"+
				" OR array_to_string(occasions, ' ') ILIKE $%[1]d)",
			argIndex,
		))
		args = append(args, "%"+escapeLike(q.Search)+"%")
		argIndex++
	}

	countQuery := "SELECT COUNT(*) FROM places" + where.String()

	query := strings.Builder{}
	query.WriteString("SELECT" + summaryColumns + " FROM places")
	query.WriteString(where.String())
	query.WriteString(" ORDER BY created_at DESC, id")
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1))

	return query.String(), countQuery, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns one page of place summaries and the total match count
func (s *PlaceStore) List(ctx context.Context, q place.ListQuery) ([]place.Place, int, error) {
	query, countQuery, args := buildListQuery(q)

	var total int
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting places: %w", err)
	}

	rows, err := s.db.Query(ctx, query, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	places, err := scanPlaces(rows)
	if err != nil {
		return nil, 0, err
	}
	return places, total, nil
}

// All returns every place summary, newest first
func (s *PlaceStore) All(ctx context.Context) ([]place.Place, error) {
	rows, err := s.db.Query(ctx, "SELECT"+summaryColumns+" FROM places ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// Get returns a hydrated place by ID
func (s *PlaceStore) Get(ctx context.Context, id string) (*place.Place, error) {
	var r placeRow
	var d place.Details
	dest := append(r.dest(), &d.OpeningHours, &d.PopularTimes, &d.Comment)

	err := s.db.QueryRow(ctx, "SELECT"+detailColumns+" FROM places WHERE id = $1", id).Scan(dest...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, place.ErrNotFound
		}
		return nil, fmt.Errorf("error querying place: %w", err)
	}

	p := r.place()
	p.Details = &d
	return &p, nil
}

// Save inserts or replaces a place
func (s *PlaceStore) Save(ctx context.Context, p place.Place) error {
	query := `
		INSERT INTO places (
			id, name, address, categories, vibes, meal_types, occasions, mood,
			rating, price_level, status, google_maps_url, local_image_path,
			lat, lng, created_at, opening_hours, popular_times, comment
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19
		)
		ON CONFLICT (id) DO UPDATE
		SET
			name = $2,
			address = $3,
			categories = $4,
			vibes = $5,
			meal_types = $6,
			occasions = $7,
			mood = $8,
			rating = $9,
			price_level = $10,
			status = $11,
			google_maps_url = $12,
			local_image_path = $13,
			lat = $14,
			lng = $15,
			opening_hours = $17,
			popular_times = $18,
			comment = $19
	`

	var lat, lng *float64
	if p.Location != nil {
		lat = &p.Location.Lat
		lng = &p.Location.Lng
	}

	var d place.Details
	if p.Details != nil {
		d = *p.Details
	}

	_, err := s.db.Exec(
		ctx,
		query,
		p.ID,
		p.Name,
		p.Address,
		textArray(p.Categories),
		textArray(p.Vibes),
		textArray(p.MealTypes),
		textArray(p.Occasions),
		textArray(p.Mood),
		p.Rating,
		p.PriceLevel,
		p.Status,
		p.GoogleMapsURL,
		p.LocalImagePath,
		lat,
		lng,
		p.CreatedAt,
		d.OpeningHours,
		d.PopularTimes,
		d.Comment,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// Delete removes a place
func (s *PlaceStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM places WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return place.ErrNotFound
	}
	return nil
}

// TopCategories returns the most used category labels
func (s *PlaceStore) TopCategories(ctx context.Context, limit int) ([]place.CategoryCount, error) {
	query := `
		SELECT c, COUNT(*) AS n
		FROM places, unnest(categories) AS c
		GROUP BY c
		ORDER BY n DESC, c
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	counts := []place.CategoryCount{}
	for rows.Next() {
		var c place.CategoryCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("error scanning category count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}

	return counts, nil
}

// Count returns the number of places
func (s *PlaceStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM places").Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting places: %w", err)
	}
	return n, nil
}

// placeRow holds one scanned summary row
type placeRow struct {
	p                                             place.Place
	categories, vibes, mealTypes, occasions, mood []string
	lat, lng                                      *float64
}

func (r *placeRow) dest() []interface{} {
	return []interface{}{
		&r.p.ID,
		&r.p.Name,
		&r.p.Address,
		&r.categories,
		&r.vibes,
		&r.mealTypes,
		&r.occasions,
		&r.mood,
		&r.p.Rating,
		&r.p.PriceLevel,
		&r.p.Status,
		&r.p.GoogleMapsURL,
		&r.p.LocalImagePath,
		&r.lat,
		&r.lng,
		&r.p.CreatedAt,
	}
}

func (r *placeRow) place() place.Place {
	p := r.p
	p.Categories = labels(r.categories)
	p.Vibes = labels(r.vibes)
	p.MealTypes = labels(r.mealTypes)
	p.Occasions = labels(r.occasions)
	p.Mood = labels(r.mood)

	// Set location if coordinates are present
	if r.lat != nil && r.lng != nil {
		p.Location = &place.Coordinate{Lat: *r.lat, Lng: *r.lng}
	}
	return p
}

func labels(items []string) place.Labels {
	if items == nil {
		return place.Labels{}
	}
	return place.Labels(items)
}

func textArray(l place.Labels) []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}

func scanPlaces(rows pgx.Rows) ([]place.Place, error) {
	places := []place.Place{}
	for rows.Next() {
		var r placeRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("error scanning place: %w", err)
		}
		places = append(places, r.place())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating places: %w", err)
	}

	return places, nil
}
