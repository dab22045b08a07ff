package amocrm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func staticToken() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: "test-token",
		TokenType:   "Bearer",
	})
}

func newTestClient(baseURL string) *Client {
	return NewClient(staticToken(), Options{
		AccountDomain: baseURL,
		MaxRetries:    3,
		RateLimit:     1000,
		PageLimit:     2,
	})
}

func TestListLeadsPagination(t *testing.T) {
	t.Parallel()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("page") {
		case "", "1":
			fmt.Fprintf(w, `{
				"_embedded": {"leads": [{"id": 1}, {"id": 2}]},
				"_links": {"next": {"href": "%s/api/v4/leads?limit=2&page=2"}}
			}`, srv.URL)
		case "2":
			fmt.Fprint(w, `{"_embedded": {"leads": [{"id": 3}]}, "_links": {}}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	leads, err := newTestClient(srv.URL).ListLeads(context.Background())
	require.NoError(t, err)
	assert.Len(t, leads, 3)
	assert.JSONEq(t, `{"id": 3}`, string(leads[2]))
}

func TestListLeadsEmptyAccount(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	leads, err := newTestClient(srv.URL).ListLeads(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"_embedded": {"leads": [{"id": 10}]}, "_links": {}}`)
	}))
	defer srv.Close()

	leads, err := newTestClient(srv.URL).ListLeads(context.Background())
	require.NoError(t, err)
	assert.Len(t, leads, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetJSONClientErrorIsFatal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"title":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListLeads(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
	// 4xx other than 429 must not be retried.
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetPipelines(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/leads/pipelines", r.URL.Path)
		fmt.Fprint(w, `{"_embedded": {"pipelines": [
			{"id": 5, "name": "Продажи", "_embedded": {"statuses": [
				{"id": 142, "name": "Успешно реализовано", "sort": 10, "is_won": true},
				{"id": 143, "name": "Закрыто и не реализовано", "sort": 11, "is_lost": true}
			]}}
		]}}`)
	}))
	defer srv.Close()

	pipelines, err := newTestClient(srv.URL).GetPipelines(context.Background())
	require.NoError(t, err)
	require.Len(t, pipelines, 1)
	assert.Equal(t, "Продажи", pipelines[0].Name)
	require.Len(t, pipelines[0].Embedded.Statuses, 2)
	assert.True(t, pipelines[0].Embedded.Statuses[0].IsWon)
	assert.True(t, pipelines[0].Embedded.Statuses[1].IsLost)
}

func TestGetLossReasons(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/leads/loss_reasons", r.URL.Path)
		fmt.Fprint(w, `{"_embedded": {"loss_reasons": [
			{"id": 1, "name": "Дорого", "sort": 10, "created_at": 1700000000}
		]}}`)
	}))
	defer srv.Close()

	reasons, err := newTestClient(srv.URL).GetLossReasons(context.Background())
	require.NoError(t, err)
	require.Len(t, reasons, 1)
	assert.Equal(t, "Дорого", reasons[0].Name)
}
