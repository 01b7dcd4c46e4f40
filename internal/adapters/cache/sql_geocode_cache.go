package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/platform/obs"
	"roadtrip-meal-service/internal/ports"
	"strings"
)

// SQLGeocodeCache is a Postgres-backed cache mapping normalized addresses
// to coordinates. It outlives the process so restarts do not re-bill the
// geocoding provider.
type SQLGeocodeCache struct {
	DB *sql.DB
}

var _ ports.GeocodeCache = (*SQLGeocodeCache)(nil)

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

func uniqueKeys(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// GetMany returns cached coordinates for the addresses it knows.
// Unknown addresses are absent from the result.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	keys := uniqueKeys(addresses)
	if len(keys) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT address, lat, lon
	FROM geocode_cache
	WHERE address = ANY($1::text[]);
	`, keys)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(keys))
	for rows.Next() {
		var addr string
		var c domain.Coordinates
		if err := rows.Scan(&addr, &c.Lat, &c.Lon); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[addr] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// PutMany upserts all mappings in one statement.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if len(results) == 0 {
		return nil
	}

	addrs := make([]string, 0, len(results))
	lats := make([]float64, 0, len(results))
	lons := make([]float64, 0, len(results))
	for addr, c := range results {
		if strings.TrimSpace(addr) == "" {
			return errors.New("insert geocode cache: empty address key")
		}
		addrs = append(addrs, addr)
		lats = append(lats, c.Lat)
		lons = append(lons, c.Lon)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lon)
	SELECT * FROM unnest($1::text[], $2::float8[], $3::float8[])
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		updated_at = now();
	`, addrs, lats, lons)
	if err != nil {
		return fmt.Errorf("insert geocode cache: %w", err)
	}

	return nil
}
