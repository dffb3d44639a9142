package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pbaille/dreamlog/internal/domain"
	"github.com/pbaille/dreamlog/internal/journal"
	"github.com/pbaille/dreamlog/internal/store"
)

var fixedNow = time.Date(2024, time.July, 15, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, seed ...domain.Entry) *httptest.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	repo := store.NewJSONStore(filepath.Join(t.TempDir(), "dreams.json"), logger)
	if len(seed) > 0 {
		require.NoError(t, repo.SaveAll(seed))
	}
	j := journal.New(repo,
		journal.WithLogger(logger),
		journal.WithClock(func() time.Time { return fixedNow }),
	)
	srv := httptest.NewServer(New(j, ":0", logger, Options{Clusters: 2}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, "GET", srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAddDream(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, "POST", srv.URL+"/dreams", `{"text": "I was being chased by a monster"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, false, body["duplicate"])
	entry := body["entry"].(map[string]any)
	assert.Equal(t, "Nightmare", entry["type"])
	assert.Equal(t, "2024-07-15", entry["date"])
	assert.Contains(t, body["interpretation"], "Nightmare")

	resp, body = do(t, "POST", srv.URL+"/dreams", `{"text": "I was being chased by a monster"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["duplicate"])

	resp, body = do(t, "GET", srv.URL+"/dreams", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])
}

func TestAddDream_Rejections(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, "POST", srv.URL+"/dreams", `{"text": "   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, journal.ErrEmptyText.Error(), body["error"])

	resp, _ = do(t, "POST", srv.URL+"/dreams", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDreamLifecycle(t *testing.T) {
	today := domain.DateOf(fixedNow)
	srv := newTestServer(t,
		domain.Entry{ID: "aa1", Date: today, Text: "a quiet walk", Category: domain.Other, Emotions: domain.NewEmotionVector(), Topics: []string{}},
		domain.Entry{ID: "aa2", Date: today, Text: "a party with family", Category: domain.Social, Emotions: domain.NewEmotionVector(), Topics: []string{}},
	)

	resp, _ := do(t, "GET", srv.URL+"/dreams/aa", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, "GET", srv.URL+"/dreams/zz", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, "GET", srv.URL+"/dreams/aa2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a party with family", body["dream"])

	resp, body = do(t, "PUT", srv.URL+"/dreams/aa1", `{"text": "falling into darkness"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Nightmare", body["type"])

	resp, _ = do(t, "PUT", srv.URL+"/dreams/aa1", `{"text": ""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, "GET", srv.URL+"/search?q=DARK", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["entries"], 1)

	resp, _ = do(t, "GET", srv.URL+"/search", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, "DELETE", srv.URL+"/dreams/aa2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "aa2", body["deleted"])

	resp, _ = do(t, "DELETE", srv.URL+"/dreams", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, "GET", srv.URL+"/dreams", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["total"])
	assert.Empty(t, body["entries"])
}

func TestTrendsAndClusters(t *testing.T) {
	today := domain.DateOf(fixedNow)
	var seed []domain.Entry
	for i, text := range []string{
		"Sailing a boat on the ocean",
		"Ocean waves rocked the boat",
		"Taking an exam at school",
		"My teacher gave me an exam at school",
	} {
		seed = append(seed, domain.Entry{
			ID:       string(rune('a' + i)),
			Date:     today.AddDays(-i),
			Text:     text,
			Category: domain.Other,
			Emotions: domain.NewEmotionVector(),
			Topics:   []string{},
		})
	}
	srv := newTestServer(t, seed...)

	resp, body := do(t, "GET", srv.URL+"/trends", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, body["total"])
	assert.Len(t, body["daily"], 4)

	resp, body = do(t, "GET", srv.URL+"/clusters", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["k"])
	dreams := body["dreams"].([]any)
	require.Len(t, dreams, 4)
	first := dreams[0].(map[string]any)
	second := dreams[1].(map[string]any)
	third := dreams[2].(map[string]any)
	assert.Equal(t, first["cluster"], second["cluster"])
	assert.NotEqual(t, first["cluster"], third["cluster"])

	resp, _ = do(t, "GET", srv.URL+"/clusters?k=50", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, "GET", srv.URL+"/dreams/c/similar", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	similar := body["similar"].([]any)
	require.Len(t, similar, 1)
	assert.Equal(t, "d", similar[0].(map[string]any)["id"])
}
