package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// ErrDuplicateLocation is returned when a location with the same
// subdistrict_code already exists.
var ErrDuplicateLocation = errors.New("location already exists for subdistrict code")

const locationColumns = `
	id, label, province_code, province_name, district_code, district_name,
	subdistrict_code, subdistrict_name, latitude, longitude, enabled,
	created_at, updated_at`

// CreateLocation inserts a new monitored location. The caller may leave ID
// empty; one is generated.
func (s *Store) CreateLocation(ctx context.Context, loc *types.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO locations (
			id, label, province_code, province_name, district_code, district_name,
			subdistrict_code, subdistrict_name, latitude, longitude, enabled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		loc.ID, loc.Label, loc.ProvinceCode, loc.ProvinceName,
		loc.DistrictCode, loc.DistrictName, loc.SubdistrictCode, loc.SubdistrictName,
		loc.Latitude, loc.Longitude, loc.Enabled,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateLocation
	}
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// GetLocation retrieves a location by ID. Returns (nil, nil) when not found.
func (s *Store) GetLocation(ctx context.Context, id string) (*types.Location, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	loc, err := scanLocation(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// ListLocations returns all locations ordered by creation time.
func (s *Store) ListLocations(ctx context.Context) ([]types.Location, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLocations(rows)
}

// ListEnabledLocations returns all locations with enabled=true, in creation
// order. The matcher preserves this order in its output.
func (s *Store) ListEnabledLocations(ctx context.Context) ([]types.Location, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+locationColumns+` FROM locations WHERE enabled = true ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLocations(rows)
}

// UpdateLocation updates the mutable fields of a location.
func (s *Store) UpdateLocation(ctx context.Context, id string, label *string, enabled *bool) (*types.Location, error) {
	_, err := s.pool.Exec(ctx, `
		UPDATE locations
		SET label = COALESCE($2, label), enabled = COALESCE($3, enabled), updated_at = NOW()
		WHERE id = $1
	`, id, label, enabled)
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}
	return s.GetLocation(ctx, id)
}

// DeleteLocation removes a location. Alerts referencing it keep their
// matched_location_id (no cascade); history stays intact.
func (s *Store) DeleteLocation(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountLocations returns the number of monitored locations.
func (s *Store) CountLocations(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM locations`).Scan(&n)
	return n, err
}

func scanLocation(row pgx.Row) (*types.Location, error) {
	var loc types.Location
	var label *string
	err := row.Scan(
		&loc.ID, &label, &loc.ProvinceCode, &loc.ProvinceName,
		&loc.DistrictCode, &loc.DistrictName, &loc.SubdistrictCode, &loc.SubdistrictName,
		&loc.Latitude, &loc.Longitude, &loc.Enabled,
		&loc.CreatedAt, &loc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if label != nil {
		loc.Label = *label
	}
	return &loc, nil
}

func collectLocations(rows pgx.Rows) ([]types.Location, error) {
	var locations []types.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *loc)
	}
	return locations, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
