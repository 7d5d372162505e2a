package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/shared/logger"
)

func testInput() governance.PolicyInput {
	return governance.PolicyInput{
		UserID:    "user-1",
		ToolName:  "shell.exec",
		DeviceIP:  "10.0.0.5",
		Timestamp: time.Now().UTC(),
	}
}

func TestOPAClient_Evaluate(t *testing.T) {
	t.Run("allow result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)

			var req opaRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "user-1", req.Input.UserID)
			assert.Equal(t, "shell.exec", req.Input.ToolName)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":{"allow":true,"reason":"within quota"}}`))
		}))
		defer srv.Close()

		client := NewOPAClient(srv.URL, logger.NewLogger())
		result, err := client.Evaluate(context.Background(), testInput())
		require.NoError(t, err)
		assert.True(t, result.Allow)
		assert.Equal(t, "within quota", result.Reason)
	})

	t.Run("deny without reason gets default", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":{"allow":false}}`))
		}))
		defer srv.Close()

		client := NewOPAClient(srv.URL, logger.NewLogger())
		result, err := client.Evaluate(context.Background(), testInput())
		require.NoError(t, err)
		assert.False(t, result.Allow)
		assert.Equal(t, "denied by policy", result.Reason)
	})

	t.Run("undefined decision is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		client := NewOPAClient(srv.URL, logger.NewLogger())
		_, err := client.Evaluate(context.Background(), testInput())
		assert.Error(t, err)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewOPAClient(srv.URL, logger.NewLogger())
		_, err := client.Evaluate(context.Background(), testInput())
		assert.Error(t, err)
	})

	t.Run("honors context deadline", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"result":{"allow":true}}`))
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		client := NewOPAClient(srv.URL, logger.NewLogger())
		_, err := client.Evaluate(ctx, testInput())
		assert.Error(t, err)
	})
}
