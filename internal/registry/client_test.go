package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-info-bot/internal/config"
)

const (
	primaryID   = "primary-resource"
	secondaryID = "secondary-resource"
)

type fakeRegistry struct {
	mu      sync.Mutex
	queried []string
	records map[string][]map[string]any
	status  map[string]int
	failing map[string]bool
	lastReq *http.Request
}

func (f *fakeRegistry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resourceID := r.URL.Query().Get("resource_id")

	f.mu.Lock()
	f.queried = append(f.queried, resourceID)
	f.lastReq = r
	code, hasStatus := f.status[resourceID]
	success := !f.failing[resourceID]
	records := f.records[resourceID]
	f.mu.Unlock()

	if hasStatus {
		w.WriteHeader(code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"result": map[string]any{
			"records": records,
		},
	})
}

func (f *fakeRegistry) queriedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queried...)
}

func (f *fakeRegistry) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func (f *fakeRegistry) setFailing(resourceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = map[string]bool{resourceID: true}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.RegistryConfig{
		BaseURL:             server.URL,
		PrimaryResourceID:   primaryID,
		SecondaryResourceID: secondaryID,
		PlateField:          "mispar_rechev",
		Limit:               10,
		Timeout:             2 * time.Second,
		UserAgent:           "test-agent",
	}, zerolog.Nop())
}

func TestSearch_PrimaryHitShortCircuits(t *testing.T) {
	fake := &fakeRegistry{records: map[string][]map[string]any{
		primaryID:   {{"mispar_rechev": 1234567, "tozeret_nm": "Toyota"}},
		secondaryID: {{"mispar_rechev": 1234567, "tozeret_nm": "Mazda"}},
	}}
	client := newTestClient(t, fake)

	result, err := client.Search(context.Background(), "1234567")
	require.NoError(t, err)

	assert.Equal(t, ResourcePrimary, result.Resource)
	assert.Equal(t, "Toyota", result.Record["tozeret_nm"])
	assert.Equal(t, []string{primaryID}, fake.queriedIDs())
}

func TestSearch_FallsBackToSecondary(t *testing.T) {
	fake := &fakeRegistry{records: map[string][]map[string]any{
		secondaryID: {{"mispar_rechev": 1234567, "tozeret_nm": "Mazda"}},
	}}
	client := newTestClient(t, fake)

	result, err := client.Search(context.Background(), "1234567")
	require.NoError(t, err)

	assert.Equal(t, ResourceSecondary, result.Resource)
	assert.Equal(t, "Mazda", result.Record["tozeret_nm"])
	assert.Equal(t, []string{primaryID, secondaryID}, fake.queriedIDs())
}

func TestSearch_PrimaryFailuresFallBack(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeRegistry
	}{
		{
			name: "non-200 status",
			fake: &fakeRegistry{status: map[string]int{primaryID: http.StatusInternalServerError}},
		},
		{
			name: "success flag false",
			fake: &fakeRegistry{failing: map[string]bool{primaryID: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fake.records = map[string][]map[string]any{
				secondaryID: {{"tozeret_nm": "Kia"}},
			}
			client := newTestClient(t, tt.fake)

			result, err := client.Search(context.Background(), "1234567")
			require.NoError(t, err)
			assert.Equal(t, ResourceSecondary, result.Resource)
			assert.Equal(t, []string{primaryID, secondaryID}, tt.fake.queriedIDs())
		})
	}
}

func TestSearch_BothMiss(t *testing.T) {
	fake := &fakeRegistry{}
	client := newTestClient(t, fake)

	result, err := client.Search(context.Background(), "1234567")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, result)
	assert.Equal(t, []string{primaryID, secondaryID}, fake.queriedIDs())
}

func TestSearch_MalformedBodyIsMiss(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))

	_, err := client.Search(context.Background(), "1234567")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch_TransportErrorIsMiss(t *testing.T) {
	client := NewClient(config.RegistryConfig{
		BaseURL:             "http://127.0.0.1:1",
		PrimaryResourceID:   primaryID,
		SecondaryResourceID: secondaryID,
		PlateField:          "mispar_rechev",
		Limit:               10,
		Timeout:             time.Second,
	}, zerolog.Nop())

	_, err := client.Search(context.Background(), "1234567")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch_CancelledContext(t *testing.T) {
	fake := &fakeRegistry{}
	client := newTestClient(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, "1234567")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_RequestShape(t *testing.T) {
	fake := &fakeRegistry{records: map[string][]map[string]any{
		primaryID: {{"mispar_rechev": 12345678}},
	}}
	client := newTestClient(t, fake)

	result, err := client.Search(context.Background(), "12345678")
	require.NoError(t, err)

	req := fake.last()
	q := req.URL.Query()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, primaryID, q.Get("resource_id"))
	assert.Equal(t, `{"mispar_rechev":"12345678"}`, q.Get("filters"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "test-agent", req.Header.Get("User-Agent"))

	// numbers keep their literal form
	assert.Equal(t, json.Number("12345678"), result.Record["mispar_rechev"])
}

func TestPing(t *testing.T) {
	fake := &fakeRegistry{}
	client := newTestClient(t, fake)

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "0", fake.last().URL.Query().Get("limit"))

	fake.setFailing(primaryID)
	assert.ErrorIs(t, client.Ping(context.Background()), ErrUnsuccessful)
}
