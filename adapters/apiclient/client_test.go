package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endo-ava/link-persona-bot/adapters/apiclient"
	"github.com/endo-ava/link-persona-bot/domain"
)

func TestClient_Ingest(t *testing.T) {
	var got domain.IngestRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ingest", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"summary":"s","persona":{"name":"Scholar","icon":"🎓","color":3447003,"description":"d"},"articleTitle":"T","articleUrl":"https://e.com"}`))
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL+"/", time.Second)
	resp, err := c.Ingest(context.Background(), domain.IngestRequest{URL: "https://e.com", PersonaID: "scholar", UserID: "u"})
	require.NoError(t, err)

	assert.Equal(t, domain.IngestRequest{URL: "https://e.com", PersonaID: "scholar", UserID: "u"}, got)
	assert.Equal(t, "s", resp.Summary)
	assert.Equal(t, domain.PersonaInfo{Name: "Scholar", Icon: "🎓", Color: 0x3498DB, Description: "d"}, resp.Persona)
	assert.Equal(t, "T", resp.ArticleTitle)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"failed to fetch article: status 404"}`))
	}))
	defer srv.Close()

	_, err := apiclient.New(srv.URL, time.Second).Ingest(context.Background(), domain.IngestRequest{URL: "https://e.com"})
	var apiErr *apiclient.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "failed to fetch article: status 404", apiErr.Message)
	assert.Equal(t, "API error (400): failed to fetch article: status 404", err.Error())
}

func TestClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := apiclient.New(srv.URL, time.Second).Debate(context.Background(), domain.DebateRequest{UserMessage: "x"})
	assert.EqualError(t, err, "API error (502): bad gateway")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := apiclient.New(srv.URL, 50*time.Millisecond).ArticleDebate(context.Background(), domain.ArticleDebateRequest{URL: "https://e.com"})
	assert.EqualError(t, err, "API request timed out")
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := apiclient.New(url, time.Second)
	_, err := c.Ingest(context.Background(), domain.IngestRequest{URL: "https://e.com"})
	assert.EqualError(t, err, "Failed to connect to API")
	assert.False(t, c.Health(context.Background()))
}

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	}))
	defer srv.Close()

	assert.True(t, apiclient.New(srv.URL, time.Second).Health(context.Background()))
}

func TestClient_Token(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/token", r.URL.Path)
		if r.Header.Get("X-API-Key") != "key" || r.Header.Get("X-API-Secret") != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"abc.def.ghi","type":"Bearer"}`))
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL, time.Second)
	token, err := c.Token(context.Background(), "key", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = c.Token(context.Background(), "key", "nope")
	assert.EqualError(t, err, "API error (401): Invalid credentials")
}
