package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/alexmarroig/Carpremiumsell/models"
)

// PostgresStore is the production persistence gateway.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS listing_sources (
			id       SERIAL PRIMARY KEY,
			name     TEXT    UNIQUE NOT NULL,
			base_url TEXT    NOT NULL,
			enabled  BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE TABLE IF NOT EXISTS raw_listings (
			id          SERIAL PRIMARY KEY,
			source_id   INTEGER NOT NULL REFERENCES listing_sources(id),
			external_id TEXT    NOT NULL,
			raw_payload JSONB   NOT NULL,
			fetched_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (source_id, external_id)
		);

		CREATE TABLE IF NOT EXISTS sellers (
			id                  SERIAL PRIMARY KEY,
			source_id           INTEGER REFERENCES listing_sources(id),
			origin              TEXT NOT NULL,
			external_id         TEXT NOT NULL,
			reputation_medal    TEXT,
			reputation_score    DOUBLE PRECISION,
			cancellations       INTEGER,
			response_time_hours DOUBLE PRECISION,
			completed_sales     INTEGER,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (origin, external_id)
		);

		CREATE TABLE IF NOT EXISTS normalized_listings (
			id                 SERIAL PRIMARY KEY,
			source_id          INTEGER NOT NULL REFERENCES listing_sources(id),
			external_id        TEXT    NOT NULL,
			brand              TEXT    NOT NULL,
			model              TEXT    NOT NULL,
			trim               TEXT,
			year               INTEGER,
			mileage_km         INTEGER,
			price_brl          DOUBLE PRECISION,
			supplier_price_brl DOUBLE PRECISION,
			final_price_brl    DOUBLE PRECISION,
			city               TEXT,
			state              TEXT,
			lat                DOUBLE PRECISION,
			lng                DOUBLE PRECISION,
			photos             JSONB NOT NULL DEFAULT '[]',
			url                TEXT,
			seller_type        TEXT,
			seller_id          INTEGER REFERENCES sellers(id),
			seller_reputation  DOUBLE PRECISION,
			status             TEXT NOT NULL DEFAULT 'active',
			trust_badge        TEXT,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (source_id, external_id)
		);

		CREATE TABLE IF NOT EXISTS seller_stats (
			id                SERIAL PRIMARY KEY,
			seller_id         INTEGER NOT NULL UNIQUE REFERENCES sellers(id),
			average_price_brl DOUBLE PRECISION,
			listings_count    INTEGER NOT NULL DEFAULT 0,
			completed_sales   INTEGER NOT NULL DEFAULT 0,
			problem_rate      DOUBLE PRECISION NOT NULL DEFAULT 0,
			reliability_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS market_stats (
			id           SERIAL PRIMARY KEY,
			region_key   TEXT NOT NULL,
			brand        TEXT NOT NULL,
			model        TEXT NOT NULL,
			trim         TEXT,
			year_range   TEXT,
			median_price DOUBLE PRECISION NOT NULL,
			p25          DOUBLE PRECISION NOT NULL,
			p75          DOUBLE PRECISION NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (region_key, brand, model)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_state  ON normalized_listings(state);
		CREATE INDEX IF NOT EXISTS idx_listings_bucket ON normalized_listings(state, brand, model);
		CREATE INDEX IF NOT EXISTS idx_listings_seller ON normalized_listings(seller_id);
		CREATE INDEX IF NOT EXISTS idx_seller_stats_reliability ON seller_stats(reliability_score);
	`)
	return err
}

// SourceByName returns the registered source row, (nil, nil) when absent.
func (ps *PostgresStore) SourceByName(name string) (*models.ListingSource, error) {
	src := &models.ListingSource{}
	err := ps.db.QueryRow(`
		SELECT id, name, base_url, enabled FROM listing_sources WHERE name = $1
	`, name).Scan(&src.ID, &src.Name, &src.BaseURL, &src.Enabled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: source by name: %w", err)
	}
	return src, nil
}

// CreateSource inserts a new source row and fills in its id.
func (ps *PostgresStore) CreateSource(src *models.ListingSource) error {
	err := ps.db.QueryRow(`
		INSERT INTO listing_sources (name, base_url, enabled)
		VALUES ($1, $2, $3)
		RETURNING id
	`, src.Name, src.BaseURL, src.Enabled).Scan(&src.ID)
	if err != nil {
		return fmt.Errorf("postgres: create source: %w", err)
	}
	return nil
}

// UpdateSourceBaseURL records a source URL migration in place.
func (ps *PostgresStore) UpdateSourceBaseURL(id int64, baseURL string) error {
	_, err := ps.db.Exec(`UPDATE listing_sources SET base_url = $2 WHERE id = $1`, id, baseURL)
	if err != nil {
		return fmt.Errorf("postgres: update source base url: %w", err)
	}
	return nil
}

// ListSources reads every registered source, ordered by id.
func (ps *PostgresStore) ListSources() ([]*models.ListingSource, error) {
	rows, err := ps.db.Query(`SELECT id, name, base_url, enabled FROM listing_sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sources: %w", err)
	}
	defer rows.Close()

	var sources []*models.ListingSource
	for rows.Next() {
		src := &models.ListingSource{}
		if err := rows.Scan(&src.ID, &src.Name, &src.BaseURL, &src.Enabled); err != nil {
			return nil, fmt.Errorf("postgres: scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// UpsertRawListing inserts or replaces the payload for one
// (source_id, external_id) key, refreshing the fetch timestamp.
func (ps *PostgresStore) UpsertRawListing(raw *models.RawListing) error {
	payload, err := json.Marshal(raw.Payload)
	if err != nil {
		return fmt.Errorf("postgres: marshal raw payload: %w", err)
	}
	if raw.FetchedAt.IsZero() {
		raw.FetchedAt = time.Now().UTC()
	}
	err = ps.db.QueryRow(`
		INSERT INTO raw_listings (source_id, external_id, raw_payload, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_id, external_id) DO UPDATE
			SET raw_payload = EXCLUDED.raw_payload,
			    fetched_at  = EXCLUDED.fetched_at
		RETURNING id
	`, raw.SourceID, raw.ExternalID, payload, raw.FetchedAt).Scan(&raw.ID)
	if err != nil {
		return fmt.Errorf("postgres: upsert raw listing: %w", err)
	}
	return nil
}

// RawListingByID loads one raw payload, (nil, nil) when absent.
func (ps *PostgresStore) RawListingByID(id int64) (*models.RawListing, error) {
	raw := &models.RawListing{}
	var payload []byte
	err := ps.db.QueryRow(`
		SELECT id, source_id, external_id, raw_payload, fetched_at
		FROM raw_listings WHERE id = $1
	`, id).Scan(&raw.ID, &raw.SourceID, &raw.ExternalID, &payload, &raw.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: raw listing by id: %w", err)
	}
	if err := json.Unmarshal(payload, &raw.Payload); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal raw payload: %w", err)
	}
	return raw, nil
}

// UpsertNormalizedListing inserts or field-by-field overwrites the canonical
// record for one (source_id, external_id) key.
func (ps *PostgresStore) UpsertNormalizedListing(l *models.NormalizedListing) error {
	photos, err := json.Marshal(l.Photos)
	if err != nil {
		return fmt.Errorf("postgres: marshal photos: %w", err)
	}
	if l.Status == "" {
		l.Status = "active"
	}
	err = ps.db.QueryRow(`
		INSERT INTO normalized_listings (
			source_id, external_id, brand, model, trim, year, mileage_km,
			price_brl, supplier_price_brl, final_price_brl, city, state,
			lat, lng, photos, url, seller_type, seller_id, seller_reputation,
			status, trust_badge
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		ON CONFLICT (source_id, external_id) DO UPDATE SET
			brand              = EXCLUDED.brand,
			model              = EXCLUDED.model,
			trim               = EXCLUDED.trim,
			year               = EXCLUDED.year,
			mileage_km         = EXCLUDED.mileage_km,
			price_brl          = EXCLUDED.price_brl,
			supplier_price_brl = EXCLUDED.supplier_price_brl,
			final_price_brl    = EXCLUDED.final_price_brl,
			city               = EXCLUDED.city,
			state              = EXCLUDED.state,
			lat                = EXCLUDED.lat,
			lng                = EXCLUDED.lng,
			photos             = EXCLUDED.photos,
			url                = EXCLUDED.url,
			seller_type        = EXCLUDED.seller_type,
			seller_id          = EXCLUDED.seller_id,
			seller_reputation  = EXCLUDED.seller_reputation,
			status             = EXCLUDED.status,
			trust_badge        = EXCLUDED.trust_badge,
			updated_at         = NOW()
		RETURNING id, created_at, updated_at
	`, l.SourceID, l.ExternalID, l.Brand, l.Model, l.Trim, l.Year, l.MileageKM,
		l.PriceBRL, l.SupplierPriceBRL, l.FinalPriceBRL, l.City, l.State,
		l.Lat, l.Lng, photos, l.URL, l.SellerType, l.SellerID, l.SellerReputation,
		l.Status, l.TrustBadge,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: upsert normalized listing: %w", err)
	}
	return nil
}

// ListListings reads the canonical records matching the filter, ordered by id.
func (ps *PostgresStore) ListListings(filter ListingFilter) ([]*models.NormalizedListing, error) {
	query := `
		SELECT id, source_id, external_id, brand, model, trim, year, mileage_km,
		       price_brl, supplier_price_brl, final_price_brl, city, state,
		       lat, lng, photos, url, seller_type, seller_id, seller_reputation,
		       status, trust_badge, created_at, updated_at
		FROM normalized_listings
		WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.RegionKey != "" {
		query += " AND LOWER(state) = LOWER(" + arg(filter.RegionKey) + ")"
	}
	if filter.Brand != "" {
		query += " AND LOWER(brand) = LOWER(" + arg(filter.Brand) + ")"
	}
	if filter.Model != "" {
		query += " AND LOWER(model) = LOWER(" + arg(filter.Model) + ")"
	}
	if filter.SourceID != 0 {
		query += " AND source_id = " + arg(filter.SourceID)
	}
	if filter.SellerID != 0 {
		query += " AND seller_id = " + arg(filter.SellerID)
	}
	if filter.Status != "" {
		query += " AND status = " + arg(filter.Status)
	}
	query += " ORDER BY id"

	rows, err := ps.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.NormalizedListing
	for rows.Next() {
		l := &models.NormalizedListing{}
		var photos []byte
		if err := rows.Scan(
			&l.ID, &l.SourceID, &l.ExternalID, &l.Brand, &l.Model, &l.Trim,
			&l.Year, &l.MileageKM, &l.PriceBRL, &l.SupplierPriceBRL,
			&l.FinalPriceBRL, &l.City, &l.State, &l.Lat, &l.Lng, &photos,
			&l.URL, &l.SellerType, &l.SellerID, &l.SellerReputation,
			&l.Status, &l.TrustBadge, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		if err := json.Unmarshal(photos, &l.Photos); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal photos: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// UpsertSeller inserts or refreshes a seller identity keyed by
// (origin, external_id). Existing values survive nil incoming fields, so a
// sparse listing never erases previously known reputation data.
func (ps *PostgresStore) UpsertSeller(s *models.Seller) error {
	err := ps.db.QueryRow(`
		INSERT INTO sellers (
			source_id, origin, external_id, reputation_medal, reputation_score,
			cancellations, response_time_hours, completed_sales
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (origin, external_id) DO UPDATE SET
			source_id           = COALESCE(EXCLUDED.source_id, sellers.source_id),
			reputation_medal    = COALESCE(EXCLUDED.reputation_medal, sellers.reputation_medal),
			reputation_score    = COALESCE(EXCLUDED.reputation_score, sellers.reputation_score),
			cancellations       = COALESCE(EXCLUDED.cancellations, sellers.cancellations),
			response_time_hours = COALESCE(EXCLUDED.response_time_hours, sellers.response_time_hours),
			completed_sales     = COALESCE(EXCLUDED.completed_sales, sellers.completed_sales),
			updated_at          = NOW()
		RETURNING id, created_at, updated_at
	`, s.SourceID, s.Origin, s.ExternalID, s.ReputationMedal, s.ReputationScore,
		s.Cancellations, s.ResponseTimeHours, s.CompletedSales,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: upsert seller: %w", err)
	}
	return nil
}

// SellerByID loads one seller, (nil, nil) when absent.
func (ps *PostgresStore) SellerByID(id int64) (*models.Seller, error) {
	s := &models.Seller{}
	err := ps.db.QueryRow(`
		SELECT id, source_id, origin, external_id, reputation_medal,
		       reputation_score, cancellations, response_time_hours,
		       completed_sales, created_at, updated_at
		FROM sellers WHERE id = $1
	`, id).Scan(&s.ID, &s.SourceID, &s.Origin, &s.ExternalID, &s.ReputationMedal,
		&s.ReputationScore, &s.Cancellations, &s.ResponseTimeHours,
		&s.CompletedSales, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: seller by id: %w", err)
	}
	return s, nil
}

// ListSellers reads every seller identity, ordered by id.
func (ps *PostgresStore) ListSellers() ([]*models.Seller, error) {
	rows, err := ps.db.Query(`
		SELECT id, source_id, origin, external_id, reputation_medal,
		       reputation_score, cancellations, response_time_hours,
		       completed_sales, created_at, updated_at
		FROM sellers ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sellers: %w", err)
	}
	defer rows.Close()

	var sellers []*models.Seller
	for rows.Next() {
		s := &models.Seller{}
		if err := rows.Scan(&s.ID, &s.SourceID, &s.Origin, &s.ExternalID,
			&s.ReputationMedal, &s.ReputationScore, &s.Cancellations,
			&s.ResponseTimeHours, &s.CompletedSales, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan seller: %w", err)
		}
		sellers = append(sellers, s)
	}
	return sellers, rows.Err()
}

// UpsertSellerStats replaces the one-to-one rollup for a seller.
func (ps *PostgresStore) UpsertSellerStats(st *models.SellerStats) error {
	err := ps.db.QueryRow(`
		INSERT INTO seller_stats (
			seller_id, average_price_brl, listings_count, completed_sales,
			problem_rate, reliability_score, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		ON CONFLICT (seller_id) DO UPDATE SET
			average_price_brl = EXCLUDED.average_price_brl,
			listings_count    = EXCLUDED.listings_count,
			completed_sales   = EXCLUDED.completed_sales,
			problem_rate      = EXCLUDED.problem_rate,
			reliability_score = EXCLUDED.reliability_score,
			updated_at        = NOW()
		RETURNING id, updated_at
	`, st.SellerID, st.AveragePriceBRL, st.ListingsCount, st.CompletedSales,
		st.ProblemRate, st.ReliabilityScore,
	).Scan(&st.ID, &st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: upsert seller stats: %w", err)
	}
	return nil
}

// ListSellerStats reads every consolidated rollup, ordered by id.
func (ps *PostgresStore) ListSellerStats() ([]*models.SellerStats, error) {
	rows, err := ps.db.Query(`
		SELECT id, seller_id, average_price_brl, listings_count,
		       completed_sales, problem_rate, reliability_score, updated_at
		FROM seller_stats ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list seller stats: %w", err)
	}
	defer rows.Close()

	var stats []*models.SellerStats
	for rows.Next() {
		st := &models.SellerStats{}
		if err := rows.Scan(&st.ID, &st.SellerID, &st.AveragePriceBRL,
			&st.ListingsCount, &st.CompletedSales, &st.ProblemRate,
			&st.ReliabilityScore, &st.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan seller stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// ReplaceMarketStats fully replaces the percentile row for one bucket.
func (ps *PostgresStore) ReplaceMarketStats(ms *models.MarketStats) error {
	err := ps.db.QueryRow(`
		INSERT INTO market_stats (
			region_key, brand, model, trim, year_range,
			median_price, p25, p75, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
		ON CONFLICT (region_key, brand, model) DO UPDATE SET
			trim         = EXCLUDED.trim,
			year_range   = EXCLUDED.year_range,
			median_price = EXCLUDED.median_price,
			p25          = EXCLUDED.p25,
			p75          = EXCLUDED.p75,
			updated_at   = NOW()
		RETURNING id, updated_at
	`, ms.RegionKey, ms.Brand, ms.Model, ms.Trim, ms.YearRange,
		ms.MedianPrice, ms.P25, ms.P75,
	).Scan(&ms.ID, &ms.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: replace market stats: %w", err)
	}
	return nil
}

// MarketStatsFor reads one bucket's percentiles, (nil, nil) when absent.
func (ps *PostgresStore) MarketStatsFor(regionKey, brand, model string) (*models.MarketStats, error) {
	ms := &models.MarketStats{}
	err := ps.db.QueryRow(`
		SELECT id, region_key, brand, model, trim, year_range,
		       median_price, p25, p75, updated_at
		FROM market_stats
		WHERE LOWER(region_key) = LOWER($1)
		  AND LOWER(brand) = LOWER($2)
		  AND LOWER(model) = LOWER($3)
	`, regionKey, brand, model).Scan(&ms.ID, &ms.RegionKey, &ms.Brand, &ms.Model,
		&ms.Trim, &ms.YearRange, &ms.MedianPrice, &ms.P25, &ms.P75, &ms.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: market stats for bucket: %w", err)
	}
	return ms, nil
}

// ListMarketStats reads every bucket row, ordered by id.
func (ps *PostgresStore) ListMarketStats() ([]*models.MarketStats, error) {
	rows, err := ps.db.Query(`
		SELECT id, region_key, brand, model, trim, year_range,
		       median_price, p25, p75, updated_at
		FROM market_stats ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list market stats: %w", err)
	}
	defer rows.Close()

	var stats []*models.MarketStats
	for rows.Next() {
		ms := &models.MarketStats{}
		if err := rows.Scan(&ms.ID, &ms.RegionKey, &ms.Brand, &ms.Model,
			&ms.Trim, &ms.YearRange, &ms.MedianPrice, &ms.P25, &ms.P75,
			&ms.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan market stats: %w", err)
		}
		stats = append(stats, ms)
	}
	return stats, rows.Err()
}

// Close releases the connection pool.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
