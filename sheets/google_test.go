package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"shootmap/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

// fakeSheetsAPI answers the values endpoints with a fixed status and body.
type fakeSheetsAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	status, body := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if body == "" {
		body = "{}"
	}
	fmt.Fprint(w, body)
}

func (f *fakeSheetsAPI) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestGoogleTable(t *testing.T, api *fakeSheetsAPI) *GoogleTable {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := gsheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return newGoogleTable(svc, "sheet-123", nil)
}

func TestGoogleTable_ReadRange(t *testing.T) {
	api := &fakeSheetsAPI{body: `{"range":"Properties!A2:Z","majorDimension":"ROWS","values":[["1","Alpha"],["2"]]}`}
	table := newTestGoogleTable(t, api)

	rows, err := table.ReadRange(context.Background(), "Properties", "A2:Z")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"1", "Alpha"}, {"2"}}, rows)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/v4/spreadsheets/sheet-123/values/Properties!A2:Z", reqs[0].Path)
}

func TestGoogleTable_WriteRange(t *testing.T) {
	api := &fakeSheetsAPI{}
	table := newTestGoogleTable(t, api)

	err := table.WriteRange(context.Background(), "Properties", "T5:W5", [][]any{{"rented", "2024-05-01 09:00:00", "", "Jane"}})
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/v4/spreadsheets/sheet-123/values/Properties!T5:W5", reqs[0].Path)
	assert.Equal(t, "RAW", reqs[0].Query.Get("valueInputOption"))
	assert.Equal(t, []any{[]any{"rented", "2024-05-01 09:00:00", "", "Jane"}}, reqs[0].Body["values"])
}

func TestGoogleTable_BatchWrite(t *testing.T) {
	api := &fakeSheetsAPI{}
	table := newTestGoogleTable(t, api)
	ctx := context.Background()

	require.NoError(t, table.BatchWrite(ctx, nil))
	assert.Empty(t, api.recorded(), "empty batch makes no call")

	err := table.BatchWrite(ctx, []RangeWrite{
		{Sheet: "Key Records", Range: "T5", Values: [][]any{{"available"}}},
		{Sheet: "Properties", Range: "V5", Values: [][]any{{"2024-05-02 12:00:00"}}},
	})
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/v4/spreadsheets/sheet-123/values:batchUpdate", reqs[0].Path)
	assert.Equal(t, "RAW", reqs[0].Body["valueInputOption"])

	data, ok := reqs[0].Body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 2)
	assert.Equal(t, "'Key Records'!T5", data[0].(map[string]any)["range"])
	assert.Equal(t, "Properties!V5", data[1].(map[string]any)["range"])
}

func TestGoogleTable_AppendRow(t *testing.T) {
	api := &fakeSheetsAPI{}
	table := newTestGoogleTable(t, api)

	err := table.AppendRow(context.Background(), "archive", []any{"1", "12", "Alpha"})
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/v4/spreadsheets/sheet-123/values/archive!A1:append", reqs[0].Path)
	assert.Equal(t, "RAW", reqs[0].Query.Get("valueInputOption"))
	assert.Equal(t, "INSERT_ROWS", reqs[0].Query.Get("insertDataOption"))
	assert.Equal(t, []any{[]any{"1", "12", "Alpha"}}, reqs[0].Body["values"])
}

func TestGoogleTable_ErrorClassification(t *testing.T) {
	tcases := map[string]struct {
		status  int
		wantErr error
		notErr  error
	}{
		"unauthorized":   {status: http.StatusUnauthorized, wantErr: models.ErrNotConfigured, notErr: models.ErrBackendUnavailable},
		"forbidden":      {status: http.StatusForbidden, wantErr: models.ErrNotConfigured, notErr: models.ErrBackendUnavailable},
		"not found":      {status: http.StatusNotFound, wantErr: models.ErrNotConfigured, notErr: models.ErrBackendUnavailable},
		"rate limited":   {status: http.StatusTooManyRequests, wantErr: models.ErrBackendUnavailable, notErr: models.ErrNotConfigured},
		"internal error": {status: http.StatusInternalServerError, wantErr: models.ErrBackendUnavailable, notErr: models.ErrNotConfigured},
		"unavailable":    {status: http.StatusServiceUnavailable, wantErr: models.ErrBackendUnavailable, notErr: models.ErrNotConfigured},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			api := &fakeSheetsAPI{
				status: tc.status,
				body:   fmt.Sprintf(`{"error":{"code":%d,"message":"%s"}}`, tc.status, http.StatusText(tc.status)),
			}
			table := newTestGoogleTable(t, api)
			ctx := context.Background()

			_, err := table.ReadRange(ctx, "Properties", "A2:Z")
			assert.ErrorIs(t, err, tc.wantErr)
			assert.NotErrorIs(t, err, tc.notErr)

			err = table.WriteRange(ctx, "Properties", "H5", [][]any{{"memo"}})
			assert.ErrorIs(t, err, tc.wantErr)

			err = table.BatchWrite(ctx, []RangeWrite{{Sheet: "Properties", Range: "H5", Values: [][]any{{"memo"}}}})
			assert.ErrorIs(t, err, tc.wantErr)

			err = table.AppendRow(ctx, "Properties", []any{"1"})
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGoogleTable_TransportFailure(t *testing.T) {
	api := &fakeSheetsAPI{}
	srv := httptest.NewServer(api)
	svc, err := gsheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	srv.Close()

	_, err = newGoogleTable(svc, "sheet-123", nil).ReadRange(context.Background(), "Properties", "A2:Z")
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)
}

func TestGoogleTable_LimiterWaitHonorsContext(t *testing.T) {
	api := &fakeSheetsAPI{}
	table := newTestGoogleTable(t, api)
	table.limiter = rate.NewLimiter(rate.Limit(1), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := table.ReadRange(ctx, "Properties", "A2:Z")
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.recorded())
}

func TestNewGoogleTable_NotConfigured(t *testing.T) {
	tcases := map[string]Credentials{
		"no spreadsheet id": {ClientEmail: "svc@example.iam", PrivateKey: "k"},
		"no key":            {SpreadsheetID: "sheet-123", ClientEmail: "svc@example.iam"},
		"no email":          {SpreadsheetID: "sheet-123", PrivateKey: "k"},
	}

	for name, creds := range tcases {
		t.Run(name, func(t *testing.T) {
			_, err := NewGoogleTable(context.Background(), creds, nil, nil)
			assert.ErrorIs(t, err, models.ErrNotConfigured)
		})
	}
}
