package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"paraiso_verde/internal/domain"
)

const (
	keyRoomTypes = "room_types"
	keyRooms     = "rooms"
	keyStats     = "stats:"
)

// CatalogService serves the slow-moving reads (room types, the room list,
// monthly stats) cache-aside. The cache is advisory: errors are logged and the
// API answers instead.
type CatalogService struct {
	api      domain.HotelAPI
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCatalogService(api domain.HotelAPI, c domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{api: api, cache: c, cacheTTL: ttl}
}

func (s *CatalogService) RoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	var out []domain.RoomType
	if s.get(ctx, keyRoomTypes, &out) {
		return out, nil
	}
	ts, err := s.api.RoomTypes(ctx)
	if err != nil {
		return nil, err
	}
	s.set(ctx, keyRoomTypes, ts)
	return append([]domain.RoomType(nil), ts...), nil
}

func (s *CatalogService) Rooms(ctx context.Context) ([]domain.Room, error) {
	var out []domain.Room
	if s.get(ctx, keyRooms, &out) {
		return out, nil
	}
	rs, err := s.api.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	s.set(ctx, keyRooms, rs)
	return append([]domain.Room(nil), rs...), nil
}

// Stats needs staff credentials on ctx when it misses the cache.
func (s *CatalogService) Stats(ctx context.Context, period string) (domain.Stats, error) {
	var out domain.Stats
	if s.get(ctx, keyStats+period, &out) {
		return out, nil
	}
	st, err := s.api.Stats(ctx, period)
	if err != nil {
		return domain.Stats{}, err
	}
	s.set(ctx, keyStats+period, st)
	return st, nil
}

// InvalidateRooms drops everything a room or reservation change can make
// stale.
func (s *CatalogService) InvalidateRooms(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, keyRooms, keyStats+"mes"); err != nil {
		log.Warn().Err(err).Msg("cache invalidate failed")
	}
}

// Warm refreshes the public catalog entries regardless of what is cached.
func (s *CatalogService) Warm(ctx context.Context, key string) error {
	switch key {
	case keyRoomTypes:
		ts, err := s.api.RoomTypes(ctx)
		if err != nil {
			return err
		}
		s.set(ctx, keyRoomTypes, ts)
	case keyRooms:
		rs, err := s.api.Rooms(ctx)
		if err != nil {
			return err
		}
		s.set(ctx, keyRooms, rs)
	default:
		return nil
	}
	return nil
}

// WarmKeys are the entries Warm knows how to rebuild.
func WarmKeys() []string { return []string{keyRoomTypes, keyRooms} }

func (s *CatalogService) get(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	return ok
}

func (s *CatalogService) set(ctx context.Context, key string, v any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
