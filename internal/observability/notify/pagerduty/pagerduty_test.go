package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-sweeper/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestBuildEventDefaults(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key", Timeout: time.Second})
	require.NoError(t, err)

	event := client.buildEvent(notify.SweepFailurePayload{
		Operation:  "delete-succeeded",
		Store:      "postgres",
		Error:      "boom",
		ErrorClass: "err_class",
		Metadata:   map[string]string{"operation": "ignored", "host": "worker-1"},
	})

	assert.Equal(t, "key", event["routing_key"])
	assert.Equal(t, "sweeper:postgres:delete-succeeded", event["dedup_key"])

	section, ok := event["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, notify.SeverityCritical, section["severity"])
	assert.Equal(t, defaultSource, section["source"])
	assert.Equal(t, defaultSource, section["component"])
	assert.Equal(t, "Sweep delete-succeeded failed on postgres store", section["summary"])

	custom, ok := section["custom_details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "delete-succeeded", custom["operation"], "metadata must not override built-in keys")
	assert.Equal(t, "worker-1", custom["host"])
	for _, key := range []string{"run_id", "store", "deleted", "error", "error_class"} {
		assert.Contains(t, custom, key)
	}
}

func TestSendSweepFailure(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "key", Endpoint: srv.URL, Client: srv.Client()})
	require.NoError(t, err)

	require.NoError(t, client.SendSweepFailure(context.Background(), notify.SweepFailurePayload{Operation: "purge-garbage"}))
	assert.Equal(t, "trigger", received["event_action"])
}
