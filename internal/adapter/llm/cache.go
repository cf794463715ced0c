package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// CachingClient memoizes the deterministic extraction calls in Redis, keyed by
// a digest of the task, model version and input text. Cache failures degrade
// to a direct model call and are only logged.
type CachingClient struct {
	inner domain.LLMClient
	rdb   redis.UniversalClient
	ttl   time.Duration
	log   *slog.Logger
}

func NewCaching(inner domain.LLMClient, rdb redis.UniversalClient, ttl time.Duration, log *slog.Logger) *CachingClient {
	if log == nil {
		log = slog.Default()
	}
	return &CachingClient{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachingClient) ModelVersion() string { return c.inner.ModelVersion() }

func (c *CachingClient) key(task, text string) string {
	sum := sha256.Sum256([]byte(task + "|" + c.inner.ModelVersion() + "|" + text))
	return "llm:" + task + ":" + hex.EncodeToString(sum[:])
}

func cacheLookup[T any](c *CachingClient, ctx domain.Context, task, text string, call func() (T, error)) (T, error) {
	key := c.key(task, text)
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		c.log.Warn("llm cache entry corrupt, refetching", slog.String("key", key))
	}
	out, err := call()
	if err != nil {
		return out, err
	}
	if raw, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.Warn("llm cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return out, nil
}

func (c *CachingClient) ExtractCandidateInfo(ctx domain.Context, cvText string) (domain.CandidateInfo, error) {
	return cacheLookup(c, ctx, "candidate_info", cvText, func() (domain.CandidateInfo, error) {
		return c.inner.ExtractCandidateInfo(ctx, cvText)
	})
}

func (c *CachingClient) GenerateCandidateMatrix(ctx domain.Context, cvText string) (domain.CandidateMatrix, error) {
	return cacheLookup(c, ctx, "candidate_matrix", cvText, func() (domain.CandidateMatrix, error) {
		return c.inner.GenerateCandidateMatrix(ctx, cvText)
	})
}

func (c *CachingClient) ExtractJobInfo(ctx domain.Context, postingText string) (domain.JobPosting, error) {
	return cacheLookup(c, ctx, "job_info", postingText, func() (domain.JobPosting, error) {
		return c.inner.ExtractJobInfo(ctx, postingText)
	})
}

// GenerateJobMatrix is never cached: recruiters regenerate matrices expecting
// a fresh pass over edited descriptions.
func (c *CachingClient) GenerateJobMatrix(ctx domain.Context, title, description string, mustHave, niceToHave []string) (domain.JobMatrix, error) {
	return c.inner.GenerateJobMatrix(ctx, title, description, mustHave, niceToHave)
}
