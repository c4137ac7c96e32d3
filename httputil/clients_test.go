package httputil

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClients_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, NewClients(0).API.Timeout)
	assert.Equal(t, 5*time.Second, NewClients(5*time.Second).API.Timeout)
}

func TestSlowLogger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			time.Sleep(80 * time.Millisecond)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	client := &http.Client{Transport: &slowLogger{next: http.DefaultTransport, threshold: 40 * time.Millisecond}}

	resp, err := client.Get(srv.URL + "/fast")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotContains(t, buf.String(), "slow request")

	resp, err = client.Get(srv.URL + "/slow")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, buf.String(), "Warning: slow request GET /slow")
}
