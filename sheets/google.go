package sheets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"shootmap/models"
)

const valueInputRaw = "RAW"

// Credentials identifies the spreadsheet and the service account used to reach it.
// Either ClientEmail+PrivateKey or ServiceAccountJSON (base64) must be set.
type Credentials struct {
	SpreadsheetID      string
	ClientEmail        string
	PrivateKey         string
	ServiceAccountJSON string
}

// GoogleTable is the Table backed by the Google Sheets values API.
type GoogleTable struct {
	svc           *gsheets.Service
	spreadsheetID string
	limiter       *rate.Limiter
}

// NewGoogleTable authenticates with a service-account key pair. base supplies
// the underlying transport and timeout; limiter paces every call.
func NewGoogleTable(ctx context.Context, creds Credentials, base *http.Client, limiter *rate.Limiter) (*GoogleTable, error) {
	if creds.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: spreadsheet id is empty", models.ErrNotConfigured)
	}
	email, key, err := resolveKeyPair(creds)
	if err != nil {
		return nil, err
	}

	conf := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(key),
		Scopes:     []string{gsheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	log.Printf("Sheets client ready for %s (service account %s)", creds.SpreadsheetID, email)
	return newGoogleTable(svc, creds.SpreadsheetID, limiter), nil
}

func newGoogleTable(svc *gsheets.Service, spreadsheetID string, limiter *rate.Limiter) *GoogleTable {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &GoogleTable{svc: svc, spreadsheetID: spreadsheetID, limiter: limiter}
}

func resolveKeyPair(creds Credentials) (email, key string, err error) {
	email, key = creds.ClientEmail, creds.PrivateKey

	// The JSON form is only consulted when the explicit key is absent.
	if key == "" && creds.ServiceAccountJSON != "" {
		decoded, err := base64.StdEncoding.DecodeString(creds.ServiceAccountJSON)
		if err != nil {
			return "", "", fmt.Errorf("%w: decode service account json: %v", models.ErrNotConfigured, err)
		}
		var sa struct {
			ClientEmail string `json:"client_email"`
			PrivateKey  string `json:"private_key"`
		}
		if err := json.Unmarshal(decoded, &sa); err != nil {
			return "", "", fmt.Errorf("%w: parse service account json: %v", models.ErrNotConfigured, err)
		}
		key = sa.PrivateKey
		if email == "" {
			email = sa.ClientEmail
		}
	}

	var missing []string
	if key == "" {
		missing = append(missing, "private key")
	}
	if email == "" {
		missing = append(missing, "client email")
	}
	if len(missing) > 0 {
		return "", "", fmt.Errorf("%w: missing %s", models.ErrNotConfigured, strings.Join(missing, ", "))
	}

	// Keys pasted into env files usually carry literal \n sequences.
	return email, strings.ReplaceAll(key, `\n`, "\n"), nil
}

func (t *GoogleTable) ReadRange(ctx context.Context, sheet, rng string) ([][]any, error) {
	a1 := A1(sheet, rng)
	if err := t.wait(ctx, "read", a1); err != nil {
		return nil, err
	}
	resp, err := t.svc.Spreadsheets.Values.Get(t.spreadsheetID, a1).Context(ctx).Do()
	if err != nil {
		return nil, classify("read", a1, err)
	}
	return resp.Values, nil
}

func (t *GoogleTable) WriteRange(ctx context.Context, sheet, rng string, values [][]any) error {
	a1 := A1(sheet, rng)
	if err := t.wait(ctx, "write", a1); err != nil {
		return err
	}
	_, err := t.svc.Spreadsheets.Values.Update(t.spreadsheetID, a1, &gsheets.ValueRange{Values: values}).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return classify("write", a1, err)
	}
	return nil
}

func (t *GoogleTable) BatchWrite(ctx context.Context, writes []RangeWrite) error {
	if len(writes) == 0 {
		return nil
	}
	data := make([]*gsheets.ValueRange, 0, len(writes))
	for _, w := range writes {
		data = append(data, &gsheets.ValueRange{Range: A1(w.Sheet, w.Range), Values: w.Values})
	}
	label := fmt.Sprintf("%s (+%d)", data[0].Range, len(data)-1)
	if err := t.wait(ctx, "batch write", label); err != nil {
		return err
	}
	_, err := t.svc.Spreadsheets.Values.BatchUpdate(t.spreadsheetID, &gsheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputRaw,
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return classify("batch write", label, err)
	}
	return nil
}

func (t *GoogleTable) AppendRow(ctx context.Context, sheet string, values []any) error {
	a1 := A1(sheet, "A1")
	if err := t.wait(ctx, "append", a1); err != nil {
		return err
	}
	_, err := t.svc.Spreadsheets.Values.Append(t.spreadsheetID, a1, &gsheets.ValueRange{Values: [][]any{values}}).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classify("append", a1, err)
	}
	return nil
}

func (t *GoogleTable) wait(ctx context.Context, op, a1 string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s %s: rate limit wait: %w", models.ErrBackendUnavailable, op, a1, err)
	}
	return nil
}

// classify maps API failures onto the error taxonomy. Auth and missing
// spreadsheet responses are configuration problems; everything else is
// treated as transient.
func classify(op, a1 string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%w: %s %s: %w", models.ErrNotConfigured, op, a1, err)
		}
	}
	return fmt.Errorf("%w: %s %s: %w", models.ErrBackendUnavailable, op, a1, err)
}
