package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateContent(t *testing.T) {
	var captured wireRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/models/"+ModelLite+":generateContent", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"getattendance"}]}}]}`)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	result, err := client.GenerateContent(context.Background(), "test-key", ModelLite, GenerateRequest{
		SystemInstruction: "you are a classifier",
		History: []Message{
			{Role: "user", Content: "hi"},
			{Role: "model", Content: "hello"},
		},
		Prompt: "show my attendance",
	})
	require.NoError(t, err)
	require.Equal(t, "getattendance", result)

	require.NotNil(t, captured.SystemInstruction)
	require.Equal(t, "you are a classifier", captured.SystemInstruction.Parts[0].Text)
	// history precedes the prompt, prompt is always a user turn
	require.Len(t, captured.Contents, 3)
	require.Equal(t, "model", captured.Contents[1].Role)
	require.Equal(t, "user", captured.Contents[2].Role)
	require.Equal(t, "show my attendance", captured.Contents[2].Parts[0].Text)
}

func TestGenerateContentStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"Quota exceeded for GenerateRequestsPerDay","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	_, err := client.GenerateContent(context.Background(), "k", ModelLite, GenerateRequest{Prompt: "hi"})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 429, statusErr.Code)
	require.Contains(t, statusErr.Message, "GenerateRequestsPerDay")
	require.Equal(t, classQuota, classify(err))
	require.True(t, isDailyLimit(statusErr.Message))
}

func TestGenerateContentNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	_, err := client.GenerateContent(context.Background(), "k", ModelLite, GenerateRequest{Prompt: "hi"})
	require.Error(t, err)
}
