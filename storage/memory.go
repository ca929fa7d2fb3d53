package storage

import (
	"strings"
	"sync"
	"time"

	"github.com/alexmarroig/Carpremiumsell/models"
)

// MemoryStore is a mutex-guarded in-process Store for tests and the
// STORAGE_BACKEND=memory demo mode. Keys and upsert semantics mirror the
// Postgres schema.
type MemoryStore struct {
	mu sync.Mutex

	nextSourceID  int64
	nextRawID     int64
	nextListingID int64
	nextSellerID  int64
	nextStatsID   int64
	nextMarketID  int64

	sources     map[int64]*models.ListingSource
	raws        map[int64]*models.RawListing
	rawKeys     map[rawKey]int64
	listings    map[int64]*models.NormalizedListing
	listingKeys map[rawKey]int64
	sellers     map[int64]*models.Seller
	sellerKeys  map[sellerKey]int64
	sellerStats map[int64]*models.SellerStats // keyed by seller id
	market      map[marketKey]*models.MarketStats
}

type rawKey struct {
	sourceID   int64
	externalID string
}

type sellerKey struct {
	origin     string
	externalID string
}

type marketKey struct {
	regionKey string
	brand     string
	model     string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sources:     make(map[int64]*models.ListingSource),
		raws:        make(map[int64]*models.RawListing),
		rawKeys:     make(map[rawKey]int64),
		listings:    make(map[int64]*models.NormalizedListing),
		listingKeys: make(map[rawKey]int64),
		sellers:     make(map[int64]*models.Seller),
		sellerKeys:  make(map[sellerKey]int64),
		sellerStats: make(map[int64]*models.SellerStats),
		market:      make(map[marketKey]*models.MarketStats),
	}
}

func (ms *MemoryStore) SourceByName(name string) (*models.ListingSource, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, src := range ms.sources {
		if src.Name == name {
			cp := *src
			return &cp, nil
		}
	}
	return nil, nil
}

func (ms *MemoryStore) CreateSource(src *models.ListingSource) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.nextSourceID++
	src.ID = ms.nextSourceID
	cp := *src
	ms.sources[src.ID] = &cp
	return nil
}

func (ms *MemoryStore) UpdateSourceBaseURL(id int64, baseURL string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if src, ok := ms.sources[id]; ok {
		src.BaseURL = baseURL
	}
	return nil
}

func (ms *MemoryStore) ListSources() ([]*models.ListingSource, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []*models.ListingSource
	for id := int64(1); id <= ms.nextSourceID; id++ {
		if src, ok := ms.sources[id]; ok {
			cp := *src
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (ms *MemoryStore) UpsertRawListing(raw *models.RawListing) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if raw.FetchedAt.IsZero() {
		raw.FetchedAt = time.Now().UTC()
	}
	key := rawKey{raw.SourceID, raw.ExternalID}
	if id, ok := ms.rawKeys[key]; ok {
		raw.ID = id
	} else {
		ms.nextRawID++
		raw.ID = ms.nextRawID
		ms.rawKeys[key] = raw.ID
	}
	cp := *raw
	ms.raws[raw.ID] = &cp
	return nil
}

func (ms *MemoryStore) RawListingByID(id int64) (*models.RawListing, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	raw, ok := ms.raws[id]
	if !ok {
		return nil, nil
	}
	cp := *raw
	return &cp, nil
}

func (ms *MemoryStore) UpsertNormalizedListing(l *models.NormalizedListing) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if l.Status == "" {
		l.Status = "active"
	}
	now := time.Now().UTC()
	key := rawKey{l.SourceID, l.ExternalID}
	if id, ok := ms.listingKeys[key]; ok {
		l.ID = id
		l.CreatedAt = ms.listings[id].CreatedAt
	} else {
		ms.nextListingID++
		l.ID = ms.nextListingID
		ms.listingKeys[key] = l.ID
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	cp := *l
	ms.listings[l.ID] = &cp
	return nil
}

func (ms *MemoryStore) ListListings(filter ListingFilter) ([]*models.NormalizedListing, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []*models.NormalizedListing
	for id := int64(1); id <= ms.nextListingID; id++ {
		l, ok := ms.listings[id]
		if !ok || !matchListing(l, filter) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func matchListing(l *models.NormalizedListing, f ListingFilter) bool {
	if f.RegionKey != "" && (l.State == nil || !strings.EqualFold(*l.State, f.RegionKey)) {
		return false
	}
	if f.Brand != "" && !strings.EqualFold(l.Brand, f.Brand) {
		return false
	}
	if f.Model != "" && !strings.EqualFold(l.Model, f.Model) {
		return false
	}
	if f.SourceID != 0 && l.SourceID != f.SourceID {
		return false
	}
	if f.SellerID != 0 && (l.SellerID == nil || *l.SellerID != f.SellerID) {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	return true
}

func (ms *MemoryStore) UpsertSeller(s *models.Seller) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	now := time.Now().UTC()
	key := sellerKey{s.Origin, s.ExternalID}
	if id, ok := ms.sellerKeys[key]; ok {
		existing := ms.sellers[id]
		s.ID = id
		s.CreatedAt = existing.CreatedAt
		if s.SourceID == nil {
			s.SourceID = existing.SourceID
		}
		if s.ReputationMedal == nil {
			s.ReputationMedal = existing.ReputationMedal
		}
		if s.ReputationScore == nil {
			s.ReputationScore = existing.ReputationScore
		}
		if s.Cancellations == nil {
			s.Cancellations = existing.Cancellations
		}
		if s.ResponseTimeHours == nil {
			s.ResponseTimeHours = existing.ResponseTimeHours
		}
		if s.CompletedSales == nil {
			s.CompletedSales = existing.CompletedSales
		}
	} else {
		ms.nextSellerID++
		s.ID = ms.nextSellerID
		ms.sellerKeys[key] = s.ID
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	cp := *s
	ms.sellers[s.ID] = &cp
	return nil
}

func (ms *MemoryStore) SellerByID(id int64) (*models.Seller, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	s, ok := ms.sellers[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (ms *MemoryStore) ListSellers() ([]*models.Seller, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []*models.Seller
	for id := int64(1); id <= ms.nextSellerID; id++ {
		if s, ok := ms.sellers[id]; ok {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (ms *MemoryStore) UpsertSellerStats(st *models.SellerStats) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if existing, ok := ms.sellerStats[st.SellerID]; ok {
		st.ID = existing.ID
	} else {
		ms.nextStatsID++
		st.ID = ms.nextStatsID
	}
	st.UpdatedAt = time.Now().UTC()
	cp := *st
	ms.sellerStats[st.SellerID] = &cp
	return nil
}

func (ms *MemoryStore) ListSellerStats() ([]*models.SellerStats, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	byID := make(map[int64]*models.SellerStats, len(ms.sellerStats))
	var maxID int64
	for _, st := range ms.sellerStats {
		byID[st.ID] = st
		if st.ID > maxID {
			maxID = st.ID
		}
	}
	var out []*models.SellerStats
	for id := int64(1); id <= maxID; id++ {
		if st, ok := byID[id]; ok {
			cp := *st
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (ms *MemoryStore) ReplaceMarketStats(m *models.MarketStats) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	key := marketKey{
		regionKey: strings.ToLower(m.RegionKey),
		brand:     strings.ToLower(m.Brand),
		model:     strings.ToLower(m.Model),
	}
	if existing, ok := ms.market[key]; ok {
		m.ID = existing.ID
	} else {
		ms.nextMarketID++
		m.ID = ms.nextMarketID
	}
	m.UpdatedAt = time.Now().UTC()
	cp := *m
	ms.market[key] = &cp
	return nil
}

func (ms *MemoryStore) MarketStatsFor(regionKey, brand, model string) (*models.MarketStats, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	key := marketKey{
		regionKey: strings.ToLower(regionKey),
		brand:     strings.ToLower(brand),
		model:     strings.ToLower(model),
	}
	m, ok := ms.market[key]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (ms *MemoryStore) ListMarketStats() ([]*models.MarketStats, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	byID := make(map[int64]*models.MarketStats, len(ms.market))
	var maxID int64
	for _, m := range ms.market {
		byID[m.ID] = m
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	var out []*models.MarketStats
	for id := int64(1); id <= maxID; id++ {
		if m, ok := byID[id]; ok {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (ms *MemoryStore) Close() error { return nil }
