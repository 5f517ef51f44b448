package copper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"copper-intel-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, pageSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		UserEmail: "bot@example.com",
		Timeout:   2 * time.Second,
		PageSize:  pageSize,
		MaxPages:  5,
	})
}

func TestClient_Search_HeadersAndPaging(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/companies/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-PW-AccessToken"))
		assert.Equal(t, "developer_api", r.Header.Get("X-PW-Application"))
		assert.Equal(t, "bot@example.com", r.Header.Get("X-PW-UserEmail"))

		var body map[string]interface{}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		assert.Equal(t, "x", body["extra"])
		page := int(body["page_number"].(float64))

		var out []map[string]interface{}
		switch page {
		case 1:
			out = []map[string]interface{}{{"id": 1, "name": "A"}, {"id": 2, "name": "B"}}
		case 2:
			out = []map[string]interface{}{{"id": 3, "name": "C"}}
		}
		_ = json.NewEncoder(w).Encode(out)
	}, 2)

	records, err := client.Search(context.Background(), models.CollectionCompanies, Filter{"extra": "x"})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "3", records[2].ID())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Search_StopsAtMaxPages(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{{"id": n}})
	}, 1)

	records, err := client.Search(context.Background(), models.CollectionPeople, nil)
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrRateLimited},
		{"not found", http.StatusNotFound, `{}`, ErrNotFound},
		{"malformed body", http.StatusOK, `{"error":"nope"}`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}, 200)

			_, err := client.Search(context.Background(), models.CollectionLeads, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, 200)
		_, err := client.Search(context.Background(), models.CollectionLeads, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestClient_Get(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path != "/people/42" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"id": 42, "name": "Jane Doe"}`)
	}, 200)

	rec, err := client.Get(context.Background(), models.CollectionPeople, "42")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", rec.Name())

	_, err = client.Get(context.Background(), models.CollectionPeople, "7")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Get(context.Background(), models.CollectionPeople, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, 200)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Search(ctx, models.CollectionTasks, nil)
	assert.Error(t, err)
}
