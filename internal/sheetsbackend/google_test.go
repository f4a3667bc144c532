package sheetsbackend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type sheetsRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeSheetsAPI records requests and answers with canned JSON.
type fakeSheetsAPI struct {
	mu       sync.Mutex
	requests []sheetsRequest
	status   int
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := sheetsRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	status := f.status
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"backend error"}}`))
		return
	}

	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		_, _ = w.Write([]byte(`{"range":"productos!A1:C3","majorDimension":"ROWS","values":[["combo","familia","linea"],["101","Cocina"],["102","Electro","Batidoras"]]}`))
	case r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"sheetId":0,"title":"usuarios"}},{"properties":{"sheetId":42,"title":"clientes"}}]}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func (f *fakeSheetsAPI) last() sheetsRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestGoogleSheets(t *testing.T, api *fakeSheetsAPI) *GoogleSheets {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewGoogleSheetsWithService(svc, "sheet-id", nil)
}

func TestGoogleSheets_Values(t *testing.T) {
	api := &fakeSheetsAPI{}
	g := newTestGoogleSheets(t, api)

	got, err := g.Values(context.Background(), sheetrepo.TableRange("productos"))
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	if len(got) != 3 || got[1][1] != "Cocina" || len(got[1]) != 2 || got[2][2] != "Batidoras" {
		t.Errorf("Values() = %v", got)
	}
	req := api.last()
	if !strings.HasSuffix(req.Path, "/spreadsheets/sheet-id/values/productos") {
		t.Errorf("path = %s", req.Path)
	}
}

func TestGoogleSheets_UpdateUsesRawInput(t *testing.T) {
	api := &fakeSheetsAPI{}
	g := newTestGoogleSheets(t, api)

	err := g.Update(context.Background(), sheetrepo.CellRange("usuarios", 2, 3), [][]string{{"p3"}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	req := api.last()
	if req.Method != http.MethodPut {
		t.Errorf("method = %s", req.Method)
	}
	if !strings.HasSuffix(req.Path, "/values/usuarios!B3") {
		t.Errorf("path = %s", req.Path)
	}
	if !strings.Contains(req.Query, "valueInputOption=RAW") {
		t.Errorf("query = %s", req.Query)
	}
}

func TestGoogleSheets_AppendInsertsRows(t *testing.T) {
	api := &fakeSheetsAPI{}
	g := newTestGoogleSheets(t, api)

	err := g.Append(context.Background(), sheetrepo.ColumnsRange("ventas", 1, 4), [][]string{{"ana", "", "25", "si"}})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	req := api.last()
	if !strings.HasSuffix(req.Path, "/values/ventas!A:D:append") {
		t.Errorf("path = %s", req.Path)
	}
	if !strings.Contains(req.Query, "insertDataOption=INSERT_ROWS") {
		t.Errorf("query = %s", req.Query)
	}
}

func TestGoogleSheets_BatchUpdate(t *testing.T) {
	api := &fakeSheetsAPI{}
	g := newTestGoogleSheets(t, api)

	err := g.BatchUpdate(context.Background(), []sheetrepo.CellUpdate{
		{Range: sheetrepo.CellRange("active_sessions", 2, 2), Values: [][]string{{"t1"}}},
		{Range: sheetrepo.CellRange("active_sessions", 4, 2), Values: [][]string{{"active"}}},
	})
	if err != nil {
		t.Fatalf("BatchUpdate() error = %v", err)
	}
	req := api.last()
	if !strings.HasSuffix(req.Path, "/values:batchUpdate") {
		t.Errorf("path = %s", req.Path)
	}
	data, _ := req.Body["data"].([]any)
	if len(data) != 2 || req.Body["valueInputOption"] != "RAW" {
		t.Errorf("body = %v", req.Body)
	}
}

func TestGoogleSheets_DeleteRowResolvesSheetID(t *testing.T) {
	api := &fakeSheetsAPI{}
	g := newTestGoogleSheets(t, api)

	if err := g.DeleteRow(context.Background(), "clientes", 3); err != nil {
		t.Fatalf("DeleteRow() error = %v", err)
	}
	req := api.last()
	if !strings.HasSuffix(req.Path, "/spreadsheets/sheet-id:batchUpdate") {
		t.Errorf("path = %s", req.Path)
	}
	requests, _ := req.Body["requests"].([]any)
	if len(requests) != 1 {
		t.Fatalf("body = %v", req.Body)
	}
	dim := requests[0].(map[string]any)["deleteDimension"].(map[string]any)["range"].(map[string]any)
	if dim["sheetId"] != float64(42) || dim["startIndex"] != float64(2) || dim["endIndex"] != float64(3) || dim["dimension"] != "ROWS" {
		t.Errorf("range = %v", dim)
	}
}

func TestGoogleSheets_DeleteRowUnknownSheet(t *testing.T) {
	g := newTestGoogleSheets(t, &fakeSheetsAPI{})
	if err := g.DeleteRow(context.Background(), "missing", 2); err == nil {
		t.Fatal("expected error for unknown sheet")
	}
}

func TestGoogleSheets_ErrorsSurfaceThroughRepository(t *testing.T) {
	api := &fakeSheetsAPI{status: http.StatusServiceUnavailable}
	repo := sheetrepo.New(newTestGoogleSheets(t, api))

	_, err := repo.FetchTable(context.Background(), "productos")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, sheetrepo.ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestNewGoogleSheets_RequiresConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewGoogleSheets(ctx, GoogleConfig{CredentialsJSON: []byte("{}")}, nil); err == nil {
		t.Error("expected error without spreadsheet id")
	}
	if _, err := NewGoogleSheets(ctx, GoogleConfig{SpreadsheetID: "x"}, nil); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := NewGoogleSheets(ctx, GoogleConfig{SpreadsheetID: "x", CredentialsJSON: []byte("not json")}, nil); err == nil {
		t.Error("expected error for malformed credentials")
	}
}
