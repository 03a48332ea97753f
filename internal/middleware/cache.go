package middleware

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/recipe-box/internal/config"
	"github.com/iliyamo/recipe-box/internal/logutil"
)

// cacheBackend stores encoded responses and per-owner generations.
type cacheBackend interface {
	get(ctx context.Context, key string) ([]byte, bool)
	set(ctx context.Context, key string, val []byte)
	generation(ctx context.Context, owner string) uint64
	bump(ctx context.Context, owner string)
}

// OwnerCache caches successful GET responses per owner.  Every entry key
// embeds the owner's current generation; any successful write by that
// owner bumps the generation before the response is sent, so a client
// never reads its own stale data.
type OwnerCache struct {
	cfg     config.CacheConfig
	backend cacheBackend
}

// NewOwnerCache picks the Redis backend when cfg asks for it and a client
// is available, and bigcache otherwise.
func NewOwnerCache(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client) (*OwnerCache, error) {
	if !cfg.Enabled {
		return &OwnerCache{cfg: cfg}, nil
	}
	if cfg.Backend == "redis" && rdb != nil {
		return &OwnerCache{cfg: cfg, backend: &redisCache{rdb: rdb, prefix: cfg.Prefix, ttl: cfg.TTL}}, nil
	}
	mc, err := newMemoryCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &OwnerCache{cfg: cfg, backend: mc}, nil
}

// Middleware must run after JWTAuth.  Requests without an identity pass
// straight through.
func (oc *OwnerCache) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if oc.backend == nil {
			return next
		}
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return next(c)
			}
			ctx := c.Request().Context()
			if c.Request().Method != http.MethodGet {
				c.Response().Writer = &invalidatingWriter{
					ResponseWriter: c.Response().Writer,
					bump:           func() { oc.backend.bump(ctx, id.UserID) },
				}
				return next(c)
			}

			key := oc.key(c, id.UserID, oc.backend.generation(ctx, id.UserID))
			if bs, ok := oc.backend.get(ctx, key); ok {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(oc.cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated {
				return nil
			}
			hdr := http.Header{}
			if ct := c.Response().Header().Get(echo.HeaderContentType); ct != "" {
				hdr.Set(echo.HeaderContentType, ct)
			}
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				log := logutil.GetOrDefault(ctx)
				log.Warn().Err(err).Msg("cache: encode failed")
				return nil
			}
			oc.backend.set(context.WithoutCancel(ctx), key, payload)
			return nil
		}
	}
}

// key hashes the request target with xxhash; owner and generation stay
// readable so Redis entries can be inspected per owner.
func (oc *OwnerCache) key(c echo.Context, owner string, gen uint64) string {
	sum := xxhash.Sum64String(c.Request().Method + " " + c.Request().URL.RequestURI())
	return fmt.Sprintf("%s:%s:%d:%016x", oc.cfg.Prefix, owner, gen, sum)
}

// invalidatingWriter bumps the owner's generation just before a 2xx write
// response reaches the client.
type invalidatingWriter struct {
	http.ResponseWriter
	bump   func()
	bumped bool
}

func (w *invalidatingWriter) WriteHeader(code int) {
	if code >= 200 && code < 300 && !w.bumped {
		w.bumped = true
		w.bump()
	}
	w.ResponseWriter.WriteHeader(code)
}

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.truncated {
		if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
			cw.truncated = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// redisCache shares entries and generations between instances.
type redisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// generations outlive entries by far so an expired counter can only reset
// to a value whose entries are long gone.
const generationTTL = 24 * time.Hour

func (r *redisCache) genKey(owner string) string { return r.prefix + ":gen:" + owner }

func (r *redisCache) get(ctx context.Context, key string) ([]byte, bool) {
	bs, err := r.rdb.Get(ctx, key).Bytes()
	return bs, err == nil
}

func (r *redisCache) set(ctx context.Context, key string, val []byte) {
	_ = r.rdb.SetEx(ctx, key, val, r.ttl).Err()
}

func (r *redisCache) generation(ctx context.Context, owner string) uint64 {
	n, err := r.rdb.Get(ctx, r.genKey(owner)).Uint64()
	if err != nil {
		return 0
	}
	return n
}

func (r *redisCache) bump(ctx context.Context, owner string) {
	pipe := r.rdb.TxPipeline()
	pipe.Incr(ctx, r.genKey(owner))
	pipe.Expire(ctx, r.genKey(owner), generationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Warn().Err(err).Str("owner", owner).Msg("cache: generation bump failed")
	}
}

// memoryCache keeps entries in bigcache and generations in a map.
type memoryCache struct {
	bc   *bigcache.BigCache
	mu   sync.Mutex
	gens map[string]uint64
}

func newMemoryCache(ctx context.Context, cfg config.CacheConfig) (*memoryCache, error) {
	bcfg := bigcache.DefaultConfig(cfg.TTL)
	bcfg.CleanWindow = cfg.TTL
	bcfg.Shards = 16
	bcfg.MaxEntriesInWindow = 1024
	bcfg.HardMaxCacheSize = 64 // MB
	bcfg.Verbose = false
	bc, err := bigcache.New(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("bigcache: %w", err)
	}
	return &memoryCache{bc: bc, gens: make(map[string]uint64)}, nil
}

func (m *memoryCache) get(_ context.Context, key string) ([]byte, bool) {
	bs, err := m.bc.Get(key)
	return bs, err == nil
}

func (m *memoryCache) set(ctx context.Context, key string, val []byte) {
	if err := m.bc.Set(key, val); err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Debug().Err(err).Int("size", len(val)).Msg("cache: set failed")
	}
}

func (m *memoryCache) generation(_ context.Context, owner string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[owner]
}

func (m *memoryCache) bump(_ context.Context, owner string) {
	m.mu.Lock()
	m.gens[owner]++
	m.mu.Unlock()
}
