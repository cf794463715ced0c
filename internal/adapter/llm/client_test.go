package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiretrack/hiretrack/internal/adapter/llm"
	"github.com/hiretrack/hiretrack/internal/domain"
)

func chatServer(t *testing.T, replies ...func(r *http.Request) (int, string)) *httptest.Server {
	t.Helper()
	var calls atomic.Int64
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		require.Less(t, n, len(replies), "unexpected extra model call")
		status, content := replies[n](r)
		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{{"message": map[string]any{"content": content}}},
			})
		}
	}))
}

func newClient(t *testing.T, srv *httptest.Server) *llm.Client {
	t.Helper()
	c, err := llm.New(llm.Options{
		BaseURL:        srv.URL,
		Model:          "gpt-4o-mini",
		Timeout:        5 * time.Second,
		MaxConcurrency: 2,
		HTTPClient:     srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestNew_EncodingResolvesOffline(t *testing.T) {
	t.Parallel()
	// Unknown model names fall back to cl100k_base; both lookups must come
	// from the embedded dictionaries, never a download.
	c, err := llm.New(llm.Options{
		BaseURL: "http://model.invalid",
		Model:   "some-house-model",
	})
	require.NoError(t, err)
	assert.Equal(t, "some-house-model", c.ModelVersion())
}

func TestExtractCandidateInfo_OK(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{"name":"Jane Doe","email":"jane@example.com","country_code":"DE","headline":"Backend Engineer"}`
	})
	defer srv.Close()

	info, err := newClient(t, srv).ExtractCandidateInfo(context.Background(), "Jane Doe ...")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", info.Name)
	assert.Equal(t, "DE", info.CountryCode)
}

func TestCompleteJSON_ReasksOnceThenSucceeds(t *testing.T) {
	t.Parallel()
	srv := chatServer(t,
		func(*http.Request) (int, string) { return http.StatusOK, "Sure! Here you go." },
		func(*http.Request) (int, string) { return http.StatusOK, `{"name":"Jane Doe"}` },
	)
	defer srv.Close()

	info, err := newClient(t, srv).ExtractCandidateInfo(context.Background(), "cv")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", info.Name)
}

func TestCompleteJSON_SchemaInvalidAfterTwoBadReplies(t *testing.T) {
	t.Parallel()
	srv := chatServer(t,
		func(*http.Request) (int, string) { return http.StatusOK, "not json" },
		func(*http.Request) (int, string) { return http.StatusOK, "still not json" },
	)
	defer srv.Close()

	_, err := newClient(t, srv).ExtractCandidateInfo(context.Background(), "cv")
	assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
}

func TestComplete_RetriesTransientErrors(t *testing.T) {
	t.Parallel()
	srv := chatServer(t,
		func(*http.Request) (int, string) { return http.StatusInternalServerError, "" },
		func(*http.Request) (int, string) { return http.StatusTooManyRequests, "" },
		func(*http.Request) (int, string) { return http.StatusOK, `{"name":"Jane Doe"}` },
	)
	defer srv.Close()

	info, err := newClient(t, srv).ExtractCandidateInfo(context.Background(), "cv")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", info.Name)
}

func TestComplete_BadRequestIsNotRetried(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, func(*http.Request) (int, string) { return http.StatusBadRequest, "" })
	defer srv.Close()

	_, err := newClient(t, srv).ExtractCandidateInfo(context.Background(), "cv")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestCompleteJSON_StripsCodeFences(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, "```json\n{\"name\":\"Jane Doe\"}\n```"
	})
	defer srv.Close()

	info, err := newClient(t, srv).ExtractCandidateInfo(context.Background(), "cv")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", info.Name)
}

func TestGenerateCandidateMatrix_NormalizesFields(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{
			"skills":[{"name":"Go","level":"wizard","years_of_experience":-1},{"name":"","level":"expert"}],
			"total_years_experience": 5,
			"confidence": 1.4
		}`
	})
	defer srv.Close()

	m, err := newClient(t, srv).GenerateCandidateMatrix(context.Background(), "cv")
	require.NoError(t, err)
	require.Len(t, m.Skills, 1)
	assert.Equal(t, domain.LevelIntermediate, m.Skills[0].Level)
	assert.Equal(t, float64(0), m.Skills[0].YearsOfExperience)
	assert.Equal(t, float64(1), m.Confidence)
	assert.Equal(t, "gpt-4o-mini", m.ModelVersion)
	assert.False(t, m.GeneratedAt.IsZero())
}

func TestGenerateJobMatrix_BadWeightsFallBack(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{
			"required_skills":[{"skill":"Go","weight":150}],
			"experience_weight":60,"location_weight":30,"domain_weight":20
		}`
	})
	defer srv.Close()

	m, err := newClient(t, srv).GenerateJobMatrix(context.Background(), "Backend Engineer", "desc", []string{"Go"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, m.ExperienceWeight)
	assert.Equal(t, 10, m.LocationWeight)
	assert.Equal(t, 10, m.DomainWeight)
	require.Len(t, m.RequiredSkills, 1)
	assert.Equal(t, 100, m.RequiredSkills[0].Weight)
	assert.Positive(t, m.SkillsWeight())
}

func TestExtractJobInfo_DefaultsEnums(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{"title":"Engineer","location_type":"open-plan","seniority_level":"rockstar","min_years_experience":-2}`
	})
	defer srv.Close()

	p, err := newClient(t, srv).ExtractJobInfo(context.Background(), "page text")
	require.NoError(t, err)
	assert.Equal(t, string(domain.LocationOnsite), p.LocationType)
	assert.Equal(t, string(domain.SeniorityMid), p.SeniorityLevel)
	assert.Equal(t, 0, p.MinYearsExperience)
}

func TestCachingClient_SecondCallHitsCache(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": `{"name":"Jane Doe"}`}}},
		})
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cached := llm.NewCaching(newClient(t, srv), rdb, time.Hour, nil)

	for range 3 {
		info, err := cached.ExtractCandidateInfo(context.Background(), "same cv text")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", info.Name)
	}
	assert.Equal(t, int64(1), calls.Load())
}
