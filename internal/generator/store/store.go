package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
)

const (
	recordKeyPrefix = "forge:artifact:"
	bytesKeyPrefix  = "forge:bytes:"
	indexKey        = "forge:artifacts"
)

// defaultGrace is how long an expired record stays readable so downloads can
// report "expired" instead of "not found" right after the TTL elapses.
const defaultGrace = time.Hour

// BlobBackend stores archive bytes outside Redis. Optional; when absent the
// bytes live in Redis next to the record.
type BlobBackend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Options configures an ArtifactStore.
type Options struct {
	BaseURL string
	TTL     time.Duration
	Grace   time.Duration
	Clock   func() time.Time
	Blobs   BlobBackend
}

// ArtifactStore persists packaged archives in Redis with a bounded lifetime.
// Records outlive their bytes by a grace window so expiry is observable.
type ArtifactStore struct {
	rdb     *redis.Client
	blobs   BlobBackend
	baseURL string
	ttl     time.Duration
	grace   time.Duration
	clock   func() time.Time
}

func NewArtifactStore(rdb *redis.Client, opts Options) *ArtifactStore {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Grace <= 0 {
		opts.Grace = defaultGrace
	}
	return &ArtifactStore{
		rdb:     rdb,
		blobs:   opts.Blobs,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		ttl:     opts.TTL,
		grace:   opts.Grace,
		clock:   opts.Clock,
	}
}

// NewID returns a fresh 32-char hex artifact identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// TTL returns the configured artifact lifetime.
func (s *ArtifactStore) TTL() time.Duration {
	return s.ttl
}

// Save persists the artifact and returns a download handle valid until expiry.
// The caller provides ID and Bytes; lifetime fields are stamped here.
func (s *ArtifactStore) Save(ctx context.Context, a domain.Artifact) (domain.DownloadHandle, error) {
	if a.ID == "" || len(a.Bytes) == 0 {
		return domain.DownloadHandle{}, fmt.Errorf("%w: artifact without id or bytes", domain.ErrInvalidInput)
	}

	now := s.clock().UTC()
	a.CreatedAt = now
	a.ExpiresAt = now.Add(s.ttl)
	a.Status = domain.ArtifactActive
	a.Size = int64(len(a.Bytes))

	record, err := json.Marshal(a)
	if err != nil {
		return domain.DownloadHandle{}, fmt.Errorf("marshal artifact record: %w", err)
	}

	if s.blobs != nil {
		if err := s.blobs.Put(ctx, blobKey(a.ID), a.Bytes); err != nil {
			return domain.DownloadHandle{}, fmt.Errorf("store artifact blob: %w", err)
		}
	} else if err := s.rdb.Set(ctx, bytesKeyPrefix+a.ID, a.Bytes, s.ttl).Err(); err != nil {
		return domain.DownloadHandle{}, fmt.Errorf("store artifact bytes: %w", err)
	}

	if err := s.rdb.Set(ctx, recordKeyPrefix+a.ID, record, s.ttl+s.grace).Err(); err != nil {
		return domain.DownloadHandle{}, fmt.Errorf("store artifact record: %w", err)
	}
	if err := s.rdb.SAdd(ctx, indexKey, a.ID).Err(); err != nil {
		return domain.DownloadHandle{}, fmt.Errorf("index artifact: %w", err)
	}

	return domain.DownloadHandle{
		ID:        a.ID,
		URL:       fmt.Sprintf("%s/download/%s", s.baseURL, a.ID),
		ExpiresAt: a.ExpiresAt,
	}, nil
}

// Get loads the artifact with its bytes. A missing record means the artifact
// never existed or is past the grace window; a present record past its expiry
// returns the record alongside ErrArtifactExpired.
func (s *ArtifactStore) Get(ctx context.Context, id string) (domain.Artifact, error) {
	a, err := s.record(ctx, id)
	if err != nil {
		return domain.Artifact{}, err
	}

	if !s.clock().UTC().Before(a.ExpiresAt) {
		a.Status = domain.ArtifactExpired
		return a, fmt.Errorf("artifact %s: %w", id, domain.ErrArtifactExpired)
	}

	if s.blobs != nil {
		a.Bytes, err = s.blobs.Get(ctx, blobKey(id))
		if err != nil {
			a.Status = domain.ArtifactPurged
			return a, fmt.Errorf("artifact %s bytes: %w", id, domain.ErrArtifactExpired)
		}
		return a, nil
	}

	bytes, err := s.rdb.Get(ctx, bytesKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		// Record still present but the payload is already gone.
		a.Status = domain.ArtifactPurged
		return a, fmt.Errorf("artifact %s: %w", id, domain.ErrArtifactExpired)
	}
	if err != nil {
		return a, fmt.Errorf("fetch artifact bytes: %w", err)
	}
	a.Bytes = bytes
	return a, nil
}

// Describe loads the artifact record without its bytes.
func (s *ArtifactStore) Describe(ctx context.Context, id string) (domain.Artifact, error) {
	a, err := s.record(ctx, id)
	if err != nil {
		return domain.Artifact{}, err
	}
	if !s.clock().UTC().Before(a.ExpiresAt) {
		a.Status = domain.ArtifactExpired
	}
	return a, nil
}

func (s *ArtifactStore) record(ctx context.Context, id string) (domain.Artifact, error) {
	raw, err := s.rdb.Get(ctx, recordKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Artifact{}, fmt.Errorf("artifact %s: %w", id, domain.ErrArtifactNotFound)
	}
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("fetch artifact record: %w", err)
	}

	var a domain.Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.Artifact{}, fmt.Errorf("decode artifact record: %w", err)
	}
	return a, nil
}

// Sweep purges every trace of expired artifacts: payload, record and index
// entry. A purged id answers "not found" afterwards; the grace window only
// covers the stretch between expiry and the next sweep. Safe to run
// repeatedly; a second pass finds nothing new.
func (s *ArtifactStore) Sweep(ctx context.Context) (int, error) {
	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list artifacts: %w", err)
	}

	purged := 0
	now := s.clock().UTC()
	for _, id := range ids {
		a, err := s.record(ctx, id)
		if errors.Is(err, domain.ErrArtifactNotFound) {
			// Record TTL already fired; drop the leftovers.
			if err := s.purge(ctx, id); err != nil {
				return purged, err
			}
			purged++
			continue
		}
		if err != nil {
			return purged, err
		}
		if now.Before(a.ExpiresAt) {
			continue
		}
		if err := s.purge(ctx, id); err != nil {
			return purged, err
		}
		purged++
	}

	return purged, nil
}

func (s *ArtifactStore) purge(ctx context.Context, id string) error {
	if s.blobs != nil {
		if err := s.blobs.Delete(ctx, blobKey(id)); err != nil {
			return fmt.Errorf("delete artifact blob %s: %w", id, err)
		}
	}
	if err := s.rdb.Del(ctx, recordKeyPrefix+id, bytesKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete artifact %s: %w", id, err)
	}
	if err := s.rdb.SRem(ctx, indexKey, id).Err(); err != nil {
		return fmt.Errorf("unindex artifact %s: %w", id, err)
	}
	return nil
}

// Stats summarizes the tracked artifacts.
type Stats struct {
	Tracked    int   `json:"tracked"`
	Active     int   `json:"active"`
	Expired    int   `json:"expired"`
	ActiveSize int64 `json:"active_size_bytes"`
}

// Stats counts tracked, active and expired artifacts.
func (s *ArtifactStore) Stats(ctx context.Context) (Stats, error) {
	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("list artifacts: %w", err)
	}

	out := Stats{Tracked: len(ids)}
	now := s.clock().UTC()
	for _, id := range ids {
		a, err := s.record(ctx, id)
		if errors.Is(err, domain.ErrArtifactNotFound) {
			continue
		}
		if err != nil {
			return out, err
		}
		if now.Before(a.ExpiresAt) && a.Status == domain.ArtifactActive {
			out.Active++
			out.ActiveSize += a.Size
		} else {
			out.Expired++
		}
	}
	return out, nil
}

func blobKey(id string) string {
	return "forge-artifacts/" + id + ".zip"
}
