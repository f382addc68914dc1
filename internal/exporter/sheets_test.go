package exporter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/internal/config"
	apperrors "salesetl/internal/errors"
)

type fakeSheets struct {
	mu      sync.Mutex
	calls   []string
	updated [][]interface{}
	fail    bool
}

func (f *fakeSheets) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
		f.calls = append(f.calls, "clear")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","clearedRange":"Summary"}`))
	case r.Method == http.MethodPut:
		f.calls = append(f.calls, "update:"+r.URL.Query().Get("valueInputOption"))
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.updated = body.Values
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updatedRows":3}`))
	default:
		http.NotFound(w, r)
	}
}

func newFakeSheets(t *testing.T) (*fakeSheets, config.SheetsConfig) {
	t.Helper()
	fake := &fakeSheets{}
	server := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(server.Close)

	return fake, config.SheetsConfig{
		SpreadsheetID: "sheet-1",
		SheetName:     "Summary",
		Endpoint:      server.URL + "/",
	}
}

func TestSheetsPublisher_Publish(t *testing.T) {
	fake, cfg := newFakeSheets(t)

	publisher, err := NewSheetsPublisher(context.Background(), cfg, nil)
	require.NoError(t, err)

	rows, err := publisher.Publish(context.Background(), testReport())
	require.NoError(t, err)
	assert.EqualValues(t, 3, rows)

	assert.Equal(t, []string{"clear", "update:RAW"}, fake.calls)
	require.Len(t, fake.updated, 3)
	assert.Equal(t, "sales_USD", fake.updated[0][10])
	assert.Equal(t, "5.40", fake.updated[2][10])
}

func TestSheetsPublisher_Errors(t *testing.T) {
	_, err := NewSheetsPublisher(context.Background(), config.SheetsConfig{}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	fake, cfg := newFakeSheets(t)
	fake.fail = true

	publisher, err := NewSheetsPublisher(context.Background(), cfg, nil)
	require.NoError(t, err)

	_, err = publisher.Publish(context.Background(), testReport())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
}

func TestExporter_PublishesToSheets(t *testing.T) {
	fake, cfg := newFakeSheets(t)

	exp := NewExporter(config.OutputConfig{Dir: t.TempDir(), Sheets: cfg}, nil)
	out, err := exp.Export(context.Background(), testReport())
	require.NoError(t, err)

	assert.True(t, out.SheetsPublished)
	assert.EqualValues(t, 3, out.SheetRows)
	assert.Len(t, fake.calls, 2)
}
