package netx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manifest struct {
	Version   string `json:"version"`
	Mandatory bool   `json:"mandatory"`
}

func TestGetJSON(t *testing.T) {
	t.Run("200 decodes body", func(t *testing.T) {
		var gotAccept, gotMethod string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotAccept = r.Header.Get("Accept")
			_, _ = w.Write([]byte(`{"version":"1.2.3","mandatory":true}`))
		}))
		defer ts.Close()

		var m manifest
		require.NoError(t, GetJSON(context.Background(), ts.Client(), ts.URL+"/version.json", &m))
		assert.Equal(t, manifest{Version: "1.2.3", Mandatory: true}, m)
		assert.Equal(t, http.MethodGet, gotMethod)
		assert.Equal(t, "application/json", gotAccept)
	})

	t.Run("non-200 is an error with body excerpt", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("no such blob"))
		}))
		defer ts.Close()

		var m manifest
		err := GetJSON(context.Background(), nil, ts.URL, &m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		assert.Contains(t, err.Error(), "no such blob")
	})

	t.Run("invalid json", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}))
		defer ts.Close()

		var m manifest
		err := GetJSON(context.Background(), ts.Client(), ts.URL, &m)
		require.ErrorContains(t, err, "decode")
	})

	t.Run("context deadline", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer ts.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		var m manifest
		err := GetJSON(ctx, ts.Client(), ts.URL, &m)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
