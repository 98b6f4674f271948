package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ALABELEWE/nigeria-tax-ussd/config"
)

func ragTestClient(serverURL string) *RagClient {
	return NewRagClient(&config.RagConfig{
		URL:           serverURL,
		QueryEndpoint: "/api/v1/query",
		Timeout:       2 * time.Second,
		MaxLength:     140,
	})
}

func TestRagQuery_HappyPath(t *testing.T) {
	var gotReq RagQueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/query", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(RagQueryResponse{
			Answer:      "The standard VAT rate in Nigeria is 7.5%.",
			Success:     true,
			ChunksFound: 3,
		})
	}))
	defer srv.Close()

	resp := ragTestClient(srv.URL).Query(context.Background(), "What is VAT rate?")

	require.True(t, resp.Success)
	require.Equal(t, "The standard VAT rate in Nigeria is 7.5%.", resp.Answer)
	require.Equal(t, "What is VAT rate?", gotReq.Question)
	require.Equal(t, 140, gotReq.MaxLength)
}

func TestRagQuery_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp := ragTestClient(srv.URL).Query(context.Background(), "What is VAT rate?")

	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Error)
	require.NotEmpty(t, resp.Answer, "a failed query still carries a fallback answer")
}

func TestRagQuery_Unreachable(t *testing.T) {
	resp := ragTestClient("http://127.0.0.1:1").Query(context.Background(), "What is VAT rate?")
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Error)
}

func TestRagQuery_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not-json"))
	}))
	defer srv.Close()

	resp := ragTestClient(srv.URL).Query(context.Background(), "What is VAT rate?")
	require.False(t, resp.Success)
}

func TestRagQuery_UnsuccessfulAnswerPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(RagQueryResponse{Success: false, Error: "no relevant documents"})
	}))
	defer srv.Close()

	resp := ragTestClient(srv.URL).Query(context.Background(), "What is VAT rate?")
	require.False(t, resp.Success)
	require.Equal(t, "no relevant documents", resp.Error)
}
