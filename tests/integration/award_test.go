//go:build integration

package integration

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// regenerate drives one content regeneration over HTTP and returns the
// response data map.
func regenerate(t *testing.T, env *TestEnv, token, kind string) map[string]any {
	t.Helper()
	resp := DoRequest(t, env, "POST", "/api/v1/learning/en/es/"+kind+"/regenerate", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := ParseResponse(t, resp)
	return result["data"].(map[string]any)
}

// submitAttempt answers every question correctly by matching each prompt's
// source phrase to the translation AddHistory stored for it, so the score
// always equals the question count regardless of how answers are shuffled.
func submitAttempt(t *testing.T, env *TestEnv, token string, questions []any) map[string]any {
	t.Helper()
	answers := make([]int, len(questions))
	for i, raw := range questions {
		q := raw.(map[string]any)
		source := strings.TrimPrefix(q["prompt"].(string), "Translate: ")
		want := translationFor(source)

		answers[i] = -1
		for j, choice := range q["choices"].([]any) {
			if choice.(string) == want {
				answers[i] = j
				break
			}
		}
		require.NotEqual(t, -1, answers[i], "question %d has no choice matching %q", i, want)
	}
	resp := DoRequest(t, env, "POST", "/api/v1/quiz/attempts", map[string]any{
		"primary_lang": "en",
		"target_lang":  "es",
		"answers":      answers,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	result := ParseResponse(t, resp)
	return result["data"].(map[string]any)
}

func claimAward(t *testing.T, env *TestEnv, token string, attemptID string, stamp, score int) map[string]any {
	t.Helper()
	resp := DoRequest(t, env, "POST", "/api/v1/coins/award", map[string]any{
		"attempt_id":                attemptID,
		"primary_lang":              "en",
		"target_lang":               "es",
		"history_count_at_generate": stamp,
		"total_score":               score,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode, "denied awards are 200 responses, not errors")
	result := ParseResponse(t, resp)
	return result["data"].(map[string]any)
}

func TestCoinAwardFlow(t *testing.T) {
	env := SetupTestEnv(t)
	token := RegisterUser(t, env, "award-flow@example.com", "password123")

	AddHistory(t, env, token, 30)

	sheet := regenerate(t, env, token, "sheet")
	require.True(t, sheet["regenerated"].(bool))

	quizResp := regenerate(t, env, token, "quiz")
	require.True(t, quizResp["regenerated"].(bool))
	quiz := quizResp["quiz"].(map[string]any)
	questions := quiz["questions"].([]any)
	require.NotEmpty(t, questions)

	attempt := submitAttempt(t, env, token, questions)
	attemptID := attempt["id"].(string)
	score := int(attempt["total_score"].(float64))
	require.GreaterOrEqual(t, score, 1)
	require.Equal(t, 30, int(attempt["quiz_history_count"].(float64)))

	t.Run("first award pays the score", func(t *testing.T) {
		result := claimAward(t, env, token, attemptID, 30, score)
		assert.True(t, result["awarded"].(bool))
		assert.Equal(t, score, int(result["coins_awarded"].(float64)))
		assert.Equal(t, score, int(result["new_total"].(float64)))
	})

	t.Run("retry is idempotent", func(t *testing.T) {
		result := claimAward(t, env, token, attemptID, 30, score)
		assert.False(t, result["awarded"].(bool))
		assert.Equal(t, "already_awarded", result["reason"])

		resp := DoRequest(t, env, "GET", "/api/v1/coins", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		stats := ParseResponse(t, resp)["data"].(map[string]any)
		assert.Equal(t, score, int(stats["coin_total"].(float64)))
	})

	t.Run("next version within ten records is denied with shortfall", func(t *testing.T) {
		AddHistory(t, env, token, 5) // history now 35

		sheet := regenerate(t, env, token, "sheet")
		require.True(t, sheet["regenerated"].(bool))
		quizResp := regenerate(t, env, token, "quiz")
		require.True(t, quizResp["regenerated"].(bool))
		newQuestions := quizResp["quiz"].(map[string]any)["questions"].([]any)

		attempt := submitAttempt(t, env, token, newQuestions)
		result := claimAward(t, env, token, attempt["id"].(string), 35, 5)
		assert.False(t, result["awarded"].(bool))
		assert.Equal(t, "insufficient_records", result["reason"])
		assert.Equal(t, 5, int(result["needed"].(float64)))
	})

	t.Run("version mismatch against a stale claim", func(t *testing.T) {
		result := claimAward(t, env, token, attemptID, 30, score)
		assert.False(t, result["awarded"].(bool))
		// Sheet moved to 35 in the previous subtest, and version 30 is in
		// the ledger already.
		assert.Equal(t, "already_awarded", result["reason"])

		result = claimAward(t, env, token, attemptID, 34, score)
		assert.False(t, result["awarded"].(bool))
		assert.Equal(t, "version_mismatch", result["reason"])
	})
}

func TestConcurrentDoubleClaim(t *testing.T) {
	env := SetupTestEnv(t)
	token := RegisterUser(t, env, "double-claim@example.com", "password123")

	AddHistory(t, env, token, 30)
	require.True(t, regenerate(t, env, token, "sheet")["regenerated"].(bool))
	quizResp := regenerate(t, env, token, "quiz")
	require.True(t, quizResp["regenerated"].(bool))
	questions := quizResp["quiz"].(map[string]any)["questions"].([]any)

	attempt := submitAttempt(t, env, token, questions)
	attemptID := attempt["id"].(string)
	score := int(attempt["total_score"].(float64))
	require.GreaterOrEqual(t, score, 1)

	const claims = 5
	results := make([]map[string]any, claims)

	var wg sync.WaitGroup
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = claimAward(t, env, token, attemptID, 30, score)
		}(i)
	}
	wg.Wait()

	awarded := 0
	for _, result := range results {
		if result["awarded"].(bool) {
			awarded++
		} else {
			assert.Equal(t, "already_awarded", result["reason"])
		}
	}
	assert.Equal(t, 1, awarded, "exactly one concurrent claim may pay out")

	resp := DoRequest(t, env, "GET", "/api/v1/coins", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := ParseResponse(t, resp)["data"].(map[string]any)
	assert.Equal(t, score, int(stats["coin_total"].(float64)), "balance credited exactly once")
}

func TestAwardDenialsForMissingState(t *testing.T) {
	env := SetupTestEnv(t)
	token := RegisterUser(t, env, "no-sheet@example.com", "password123")

	result := claimAward(t, env, token, "11111111-1111-1111-1111-111111111111", 30, 5)
	assert.False(t, result["awarded"].(bool))
	assert.Equal(t, "no_sheet", result["reason"])

	result = claimAward(t, env, token, "11111111-1111-1111-1111-111111111111", 30, 0)
	assert.False(t, result["awarded"].(bool))
	assert.Equal(t, "zero_score", result["reason"])
}
