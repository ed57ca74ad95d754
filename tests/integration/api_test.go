//go:build integration

package integration

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatFlow(t *testing.T) {
	env := SetupTestEnv(t)
	env.Completion.Reply = "Hello! How can I help you today?"

	resp := DoRequest(t, env, "POST", "/api/v1/chat", map[string]string{
		"message": "hi there",
		"uid":     "flow-user",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := ParseResponse(t, resp)
	data := result["data"].(map[string]any)
	assert.Equal(t, "Hello! How can I help you today?", data["response"])

	// Both sides of the turn are now in the transcript.
	resp = DoRequest(t, env, "GET", "/api/v1/history?uid=flow-user", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result = ParseResponse(t, resp)
	msgs := result["data"].([]any)
	require.Len(t, msgs, 2)

	first := msgs[0].(map[string]any)
	second := msgs[1].(map[string]any)
	assert.Equal(t, "user", first["sender"])
	assert.Equal(t, "hi there", first["text"])
	assert.Equal(t, "bot", second["sender"])
	assert.Equal(t, "Hello! How can I help you today?", second["text"])
}

func TestChatToneDecoration(t *testing.T) {
	env := SetupTestEnv(t)
	env.Completion.Reply = "That sounds wonderful."

	resp := DoRequest(t, env, "POST", "/api/v1/chat", map[string]string{
		"message": "I am so happy today",
		"uid":     "tone-user",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := ParseResponse(t, resp)
	data := result["data"].(map[string]any)
	assert.Equal(t, "😊 That sounds wonderful. Yay!", data["response"])

	// The stored transcript keeps the undecorated reply.
	resp = DoRequest(t, env, "GET", "/api/v1/history?uid=tone-user", nil)
	result = ParseResponse(t, resp)
	msgs := result["data"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "That sounds wonderful.", msgs[1].(map[string]any)["text"])
}

func TestChatProfilePersistsAcrossTurns(t *testing.T) {
	env := SetupTestEnv(t)
	env.Completion.Reply = "Nice to meet you!"

	resp := DoRequest(t, env, "POST", "/api/v1/chat", map[string]string{
		"message": "my name is Sam and I like chess",
		"uid":     "profile-user",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ParseResponse(t, resp)

	ctx := context.Background()
	var name, hobby string
	require.NoError(t, env.Pool.QueryRow(ctx,
		`SELECT value FROM user_profiles WHERE user_id = $1 AND field = 'name'`, "profile-user").Scan(&name))
	require.NoError(t, env.Pool.QueryRow(ctx,
		`SELECT value FROM user_profiles WHERE user_id = $1 AND field = 'hobby'`, "profile-user").Scan(&hobby))
	assert.Equal(t, "Sam", name)
	assert.Equal(t, "chess", hobby)
}

func TestChatValidation(t *testing.T) {
	env := SetupTestEnv(t)

	resp := DoRequest(t, env, "POST", "/api/v1/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = DoRequest(t, env, "POST", "/api/v1/chat", map[string]string{"uid": "u"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestTTSFlow(t *testing.T) {
	env := SetupTestEnv(t)
	env.TTSProvider.Audio = []byte("mp3 payload")

	resp := DoRequest(t, env, "POST", "/api/v1/tts", map[string]string{
		"text": "hello world",
		"uid":  "tts-flow-user",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := ParseResponse(t, resp)
	data := result["data"].(map[string]any)
	url := data["url"].(string)
	require.True(t, strings.HasPrefix(url, "/api/v1/audio/"))

	// Stream the audio back.
	streamResp := DoRequest(t, env, "GET", url, nil)
	require.Equal(t, http.StatusOK, streamResp.StatusCode)
	body, err := io.ReadAll(streamResp.Body)
	streamResp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3 payload"), body)

	// One-shot URL: gone after the first fetch.
	streamResp = DoRequest(t, env, "GET", url, nil)
	assert.Equal(t, http.StatusNotFound, streamResp.StatusCode)
	streamResp.Body.Close()
}

func TestTTSQuota(t *testing.T) {
	env := SetupTestEnv(t)

	// The test env caps the daily quota at 1000 characters.
	big := strings.Repeat("a", 900)
	resp := DoRequest(t, env, "POST", "/api/v1/tts", map[string]string{
		"text": big,
		"uid":  "quota-user",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ParseResponse(t, resp)

	resp = DoRequest(t, env, "POST", "/api/v1/tts", map[string]string{
		"text": strings.Repeat("b", 200),
		"uid":  "quota-user",
	})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	result := ParseResponse(t, resp)
	assert.Equal(t, "daily speech quota exceeded", result["error"])
}

func TestHealthEndpoints(t *testing.T) {
	env := SetupTestEnv(t)

	resp := DoRequest(t, env, "GET", "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = DoRequest(t, env, "GET", "/health/ready", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := ParseResponse(t, resp)
	data := result["data"].(map[string]any)
	assert.Equal(t, "healthy", data["database"])
	assert.Equal(t, "healthy", data["redis"])
	assert.Equal(t, "not configured", data["nats"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := SetupTestEnv(t)

	resp := DoRequest(t, env, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "felix_http_requests_total")
}
