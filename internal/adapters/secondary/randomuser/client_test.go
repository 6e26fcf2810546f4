package randomuser_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/user-directory/internal/adapters/secondary/randomuser"
	"github.com/lorrc/user-directory/internal/core/domain"
)

const pageBody = `{
  "results": [
    {
      "gender": "female",
      "name": {"title": "Ms", "first": "Ana", "last": "Zapata"},
      "location": {"city": "Lima", "country": "Peru"},
      "email": "ana@example.com",
      "login": {"uuid": "0b5e6a3c-1f1d-4c9e-9a51-7e3c7a2b9d10", "username": "ana"},
      "picture": {"large": "l.jpg", "medium": "m.jpg", "thumbnail": "t1.jpg"}
    },
    {
      "name": {"first": "Bruno", "last": "Young"},
      "location": {"country": "Chile"},
      "login": {"uuid": "6f3c1c5e-2f0a-4a47-8d83-2c1f3a7d4e55"},
      "picture": {"thumbnail": "t2.jpg"}
    },
    {
      "name": {"first": "No", "last": "Id"},
      "location": {"country": "Nowhere"},
      "login": {},
      "picture": {"thumbnail": "t3.jpg"}
    }
  ],
  "info": {"seed": "torodev", "results": 3, "page": %d, "version": "1.4"}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, maxPage int) *randomuser.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := randomuser.Config{
		BaseURL:  server.URL + "/api/",
		PageSize: 5,
		Seed:     "torodev",
		MaxPage:  maxPage,
		Timeout:  time.Second,
	}
	return randomuser.NewClient(cfg, server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_FetchPage(t *testing.T) {
	t.Run("maps users and derives the next cursor", func(t *testing.T) {
		var query map[string]string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/", r.URL.Path)
			query = map[string]string{
				"results": r.URL.Query().Get("results"),
				"seed":    r.URL.Query().Get("seed"),
				"page":    r.URL.Query().Get("page"),
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, sprintfPage(1))
		}, 2)

		page, err := client.FetchPage(context.Background(), 1)
		require.NoError(t, err)

		assert.Equal(t, map[string]string{"results": "5", "seed": "torodev", "page": "1"}, query)
		assert.Equal(t, 1, page.Number)
		assert.Equal(t, domain.NewCursor(2), page.Next)
		require.Len(t, page.Users, 2)
		assert.Equal(t, domain.User{
			ID:        "0b5e6a3c-1f1d-4c9e-9a51-7e3c7a2b9d10",
			FirstName: "Ana",
			LastName:  "Zapata",
			Country:   "Peru",
			Thumbnail: "t1.jpg",
		}, page.Users[0])
		assert.Equal(t, "Chile", page.Users[1].Country)
	})

	t.Run("cursor is exhausted past the last page", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, sprintfPage(3))
		}, 2)

		page, err := client.FetchPage(context.Background(), 3)
		require.NoError(t, err)
		assert.True(t, page.Next.Exhausted())
	})

	t.Run("non-2xx is a failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}, 2)

		_, err := client.FetchPage(context.Background(), 1)
		assert.ErrorIs(t, err, randomuser.ErrUnexpectedStatus)
	})

	t.Run("api error body is a failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"error": "Uh oh, something has gone wrong."}`)
		}, 2)

		_, err := client.FetchPage(context.Background(), 1)
		assert.ErrorContains(t, err, "something has gone wrong")
	})

	t.Run("malformed body is a failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"results": [`)
		}, 2)

		_, err := client.FetchPage(context.Background(), 1)
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, sprintfPage(1))
		}, 2)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.FetchPage(ctx, 1)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func sprintfPage(page int) string {
	return fmt.Sprintf(pageBody, page)
}
