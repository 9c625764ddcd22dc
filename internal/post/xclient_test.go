package post

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snagasawa/kabupost/internal/config"
	"github.com/snagasawa/kabupost/internal/types"
)

func testXConfig() config.XConfig {
	return config.XConfig{
		APIKey:       "k",
		APISecret:    "s",
		AccessToken:  "t",
		AccessSecret: "ts",
	}
}

func TestPostReturnsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/2/tweets", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "OAuth")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "テスト投稿", body["text"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1234567890"}}`))
	}))
	defer srv.Close()

	client := newXClient(testXConfig(), srv.URL)
	id, err := client.Post(context.Background(), "テスト投稿")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", id)
}

func TestPostAPIErrorIsFetchFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"duplicate content"}`))
	}))
	defer srv.Close()

	client := newXClient(testXConfig(), srv.URL)
	_, err := client.Post(context.Background(), "テスト投稿")
	assert.True(t, errors.Is(err, types.ErrFetchFailed))
}
