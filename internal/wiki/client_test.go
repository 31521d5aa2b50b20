package wiki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	langfxcore "github.com/termfx/langfx/internal/core"
)

// testClient points the client at a local server; the language code lands
// in the path instead of the subdomain.
func testClient(srv *httptest.Server) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
		BaseURL:    srv.URL + "/%s",
		MaxRetries: 3,
	}
}

type llPage struct {
	Title     string              `json:"title"`
	Langlinks []map[string]string `json:"langlinks,omitempty"`
}

func llResponse(cont string, pages ...llPage) map[string]any {
	body := map[string]any{
		"query": map[string]any{"pages": pages},
	}
	if cont != "" {
		body["continue"] = map[string]string{"llcontinue": cont}
	}
	return body
}

func TestLanglinks_SingleBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "query", q.Get("action"))
		assert.Equal(t, "langlinks", q.Get("prop"))
		assert.Equal(t, "Berlin|Munich", q.Get("titles"))

		json.NewEncoder(w).Encode(llResponse("",
			llPage{Title: "Berlin", Langlinks: []map[string]string{
				{"lang": "de", "title": "Berlin"},
				{"lang": "fr", "title": "Berlin"},
			}},
			llPage{Title: "Munich", Langlinks: []map[string]string{
				{"lang": "de", "title": "München"},
			}},
		))
	}))
	defer srv.Close()

	got, err := testClient(srv).Langlinks(context.Background(), []string{"Berlin", "Munich"}, "en", []string{"de"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, map[string]string{"en": "Berlin", "de": "Berlin"}, got[0])
	assert.Equal(t, map[string]string{"en": "Munich", "de": "München"}, got[1])
}

func TestLanglinks_SpacesBecomeUnderscores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(llResponse("",
			llPage{Title: "New York City", Langlinks: []map[string]string{
				{"lang": "de", "title": "New York City"},
			}},
		))
	}))
	defer srv.Close()

	got, err := testClient(srv).Langlinks(context.Background(), []string{"New_York_City"}, "en", []string{"de"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en": "New_York_City", "de": "New_York_City"}, got[0])
}

func TestLanglinks_ContinuationMergesSlots(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			assert.Empty(t, r.URL.Query().Get("llcontinue"))
			json.NewEncoder(w).Encode(llResponse("page2",
				llPage{Title: "Berlin", Langlinks: []map[string]string{{"lang": "de", "title": "Berlin"}}},
			))
		default:
			assert.Equal(t, "page2", r.URL.Query().Get("llcontinue"))
			json.NewEncoder(w).Encode(llResponse("",
				llPage{Title: "Berlin", Langlinks: []map[string]string{{"lang": "nl", "title": "Berlijn"}}},
			))
		}
	}))
	defer srv.Close()

	got, err := testClient(srv).Langlinks(context.Background(), []string{"Berlin"}, "en", []string{"de", "nl"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, map[string]string{"en": "Berlin", "de": "Berlin", "nl": "Berlijn"}, got[0])
}

func TestLanglinks_UnknownTitleFallsBackToSelf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(llResponse(""))
	}))
	defer srv.Close()

	got, err := testClient(srv).Langlinks(context.Background(), []string{"Nowhere_Town"}, "en", []string{"de"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en": "Nowhere_Town"}, got[0])
}

func TestLanglinks_RetriesAfterRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(llResponse("",
			llPage{Title: "Berlin", Langlinks: []map[string]string{{"lang": "de", "title": "Berlin"}}},
		))
	}))
	defer srv.Close()

	got, err := testClient(srv).Langlinks(context.Background(), []string{"Berlin"}, "en", []string{"de"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.Equal(t, map[string]string{"en": "Berlin", "de": "Berlin"}, got[0])
}

func TestLanglinks_ServerErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv).Langlinks(context.Background(), []string{"Berlin"}, "en", []string{"de"})
	require.Error(t, err)
	ce, ok := err.(langfxcore.CLIError)
	require.True(t, ok, "expected CLIError, got %T", err)
	assert.Equal(t, langfxcore.ErrHTTP, ce.Code)
}

func TestLanglinks_EmptyBatch(t *testing.T) {
	got, err := NewClient().Langlinks(context.Background(), nil, "en", []string{"de"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCategoryMembers_Paged(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "categorymembers", q.Get("list"))
		assert.Equal(t, "Category:Novels", q.Get("cmtitle"))

		if calls.Add(1) == 1 {
			json.NewEncoder(w).Encode(map[string]any{
				"continue": map[string]string{"cmcontinue": "next"},
				"query": map[string]any{
					"categorymembers": []map[string]string{{"title": "War and Peace"}},
				},
			})
			return
		}
		assert.Equal(t, "next", q.Get("cmcontinue"))
		json.NewEncoder(w).Encode(map[string]any{
			"query": map[string]any{
				"categorymembers": []map[string]string{{"title": "Anna Karenina"}},
			},
		})
	}))
	defer srv.Close()

	got, err := testClient(srv).CategoryMembers(context.Background(), "Category:Novels", "en")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"War_and_Peace": {}, "Anna_Karenina": {}}, got)
}

func TestGet_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv).Langlinks(ctx, []string{"Berlin"}, "en", []string{"de"})
	assert.Error(t, err)
}
