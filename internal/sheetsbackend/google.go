package sheetsbackend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw  = "RAW"
	insertRows     = "INSERT_ROWS"
	dimensionRows  = "ROWS"
	sheetPropField = googleapi.Field("sheets.properties")
)

// GoogleConfig configures the Google Sheets transport.
type GoogleConfig struct {
	SpreadsheetID   string
	CredentialsJSON []byte
	Timeout         time.Duration
	RetryMax        int
}

// GoogleSheets is a sheetrepo.Backend over the Sheets v4 API.
type GoogleSheets struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *zap.Logger
}

var _ sheetrepo.Backend = (*GoogleSheets)(nil)

// NewGoogleSheets authenticates with service-account credentials and builds
// the API client. Requests go through retryablehttp; RetryMax 0 sends each
// request once.
func NewGoogleSheets(ctx context.Context, cfg GoogleConfig, logger *zap.Logger) (*GoogleSheets, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheetsbackend: spreadsheet id is required")
	}
	if len(cfg.CredentialsJSON) == 0 {
		return nil, errors.New("sheetsbackend: credentials are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheetsbackend: parse credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(newHTTPClient(ctx, creds.TokenSource, cfg, logger)))
	if err != nil {
		return nil, fmt.Errorf("sheetsbackend: create sheets service: %w", err)
	}
	return NewGoogleSheetsWithService(svc, cfg.SpreadsheetID, logger), nil
}

// NewGoogleSheetsWithService wraps an existing API client.
func NewGoogleSheetsWithService(svc *sheets.Service, spreadsheetID string, logger *zap.Logger) *GoogleSheets {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleSheets{svc: svc, spreadsheetID: spreadsheetID, logger: logger}
}

func newHTTPClient(ctx context.Context, ts oauth2.TokenSource, cfg GoogleConfig, logger *zap.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = oauth2.NewClient(ctx, ts)
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.RetryMax = cfg.RetryMax
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{logger.Sugar()}
	return rc.StandardClient()
}

func (g *GoogleSheets) Values(ctx context.Context, ref sheetrepo.RangeRef) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, ref.String()).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromCells(resp.Values), nil
}

func (g *GoogleSheets) Append(ctx context.Context, ref sheetrepo.RangeRef, rows [][]string) error {
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, ref.String(), &sheets.ValueRange{Values: toCells(rows)}).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	return err
}

func (g *GoogleSheets) Update(ctx context.Context, ref sheetrepo.RangeRef, rows [][]string) error {
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, ref.String(), &sheets.ValueRange{Values: toCells(rows)}).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	return err
}

func (g *GoogleSheets) BatchUpdate(ctx context.Context, updates []sheetrepo.CellUpdate) error {
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: valueInputRaw}
	for _, u := range updates {
		req.Data = append(req.Data, &sheets.ValueRange{Range: u.Range.String(), Values: toCells(u.Values)})
	}
	_, err := g.svc.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	return err
}

// DeleteRow resolves the numeric sheet id of table, then removes the row
// with a DeleteDimension request.
func (g *GoogleSheets) DeleteRow(ctx context.Context, table string, row int) error {
	sheetID, err := g.sheetID(ctx, table)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       dimensionRows,
					StartIndex:      int64(row - 1),
					EndIndex:        int64(row),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	_, err = g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	return err
}

func (g *GoogleSheets) sheetID(ctx context.Context, table string) (int64, error) {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields(sheetPropField).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == table {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", table)
}

func toCells(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		cells := make([]any, len(r))
		for j, v := range r {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func fromCells(rows [][]any) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		cells := make([]string, len(r))
		for j, v := range r {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
