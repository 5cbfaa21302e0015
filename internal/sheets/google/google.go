package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"viagem/internal/core"
	"viagem/internal/dashboard"
	ports "viagem/internal/sheets"
)

// Tab names. Expenses and attractions get one tab per country, named
// "<prefix> <country>".
const (
	BudgetsTab        = "Budgets"
	ChecklistTab      = "Checklist"
	ReservationsTab   = "Reservations"
	ExpensesPrefix    = "Expenses"
	AttractionsPrefix = "Attractions"
)

// Config holds what the client needs to reach one spreadsheet.
type Config struct {
	SpreadsheetID string
	// Service account credentials, inline JSON or a file path. When both are
	// empty GOOGLE_APPLICATION_CREDENTIALS is consulted.
	CredentialsJSON string
	CredentialsFile string
	// SheetCacheTTL bounds how long tab ids are cached. Defaults to 10m.
	SheetCacheTTL time.Duration
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *slog.Logger

	// Tab title -> sheet id, needed for row deletion and tab listing.
	mu                 sync.Mutex
	sheetIDs           map[string]int64
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var _ ports.TripAPI = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg, logger), nil
}

func newClient(svc *gsheet.Service, cfg Config, logger *slog.Logger) *Client {
	ttl := cfg.SheetCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      strings.TrimSpace(cfg.SpreadsheetID),
		logger:             logger.With("component", "sheets"),
		cacheValidDuration: ttl,
	}
}

// credentialsJSON resolves the service account key from cfg or the
// standard Google Cloud environment variable.
func credentialsJSON(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func newSheetsService(ctx context.Context, cfg Config, logger *slog.Logger) (*gsheet.Service, error) {
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func countryTab(prefix, country string) string {
	return prefix + " " + strings.TrimSpace(country)
}

// quoteTab quotes a tab title for use in A1 notation.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func dataRange(tab string, header []any) string {
	return fmt.Sprintf("%s!A2:%s", quoteTab(tab), lastColumn(header))
}

func rowRange(tab string, header []any, id int) string {
	row := id + 1
	return fmt.Sprintf("%s!A%d:%s%d", quoteTab(tab), row, lastColumn(header), row)
}

func (c *Client) ready() error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	return nil
}

// readRows returns the data rows of tab. A missing tab reads as empty.
func (c *Client) readRows(ctx context.Context, tab string, header []any) ([][]any, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	ids, err := c.sheets(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := ids[tab]; !ok {
		return nil, nil
	}
	rng := dataRange(tab, header)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// appendRow writes row after the last data row of tab, creating the tab
// when needed, and returns the id of the new row.
func (c *Client) appendRow(ctx context.Context, tab string, header []any, row []any) (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	if err := c.ensureTab(ctx, tab, header); err != nil {
		return 0, err
	}
	rng := fmt.Sprintf("%s!A:%s", quoteTab(tab), lastColumn(header))
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("append to %s: %w", tab, err)
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("append to %s: no updated range in response", tab)
	}
	sheetRow, err := rowNumber(resp.Updates.UpdatedRange)
	if err != nil {
		return 0, err
	}
	return sheetRow - 1, nil
}

func (c *Client) updateRow(ctx context.Context, tab string, header []any, id int, row []any) error {
	if err := c.ready(); err != nil {
		return err
	}
	if id < 1 {
		return fmt.Errorf("row %d: %w", id, core.ErrNotFound)
	}
	rng := rowRange(tab, header, id)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// deleteRow removes the sheet row of id; the rows below move up, which is
// what shifts later ids down by one.
func (c *Client) deleteRow(ctx context.Context, tab string, id int) error {
	if err := c.ready(); err != nil {
		return err
	}
	ids, err := c.sheets(ctx)
	if err != nil {
		return err
	}
	sheetID, ok := ids[tab]
	if !ok || id < 1 {
		return fmt.Errorf("%s row %d: %w", tab, id, core.ErrNotFound)
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(id),
			EndIndex:   int64(id + 1),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete %s row %d: %w", tab, id, err)
	}
	return nil
}

// moveRow appends row to tab to and then deletes row id of tab from. The
// append comes first so a failure never loses the entity; when the delete
// fails the appended row is removed again, leaving the entity in one tab.
func (c *Client) moveRow(ctx context.Context, from string, id int, to string, header []any, row []any) (int, error) {
	newID, err := c.appendRow(ctx, to, header, row)
	if err != nil {
		return 0, err
	}
	if err := c.deleteRow(ctx, from, id); err != nil {
		if rbErr := c.deleteRow(context.WithoutCancel(ctx), to, newID); rbErr != nil {
			c.logger.ErrorContext(ctx, "Failed to roll back moved row, entity is in both tabs",
				"from", from, "to", to, "row", newID, "error", rbErr)
			return 0, errors.Join(err, fmt.Errorf("roll back %s row %d: %w", to, newID, rbErr))
		}
		return 0, err
	}
	return newID, nil
}

// sheets returns the cached tab title -> sheet id map, refreshing it when
// expired.
func (c *Client) sheets(ctx context.Context) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetIDs != nil && time.Now().Before(c.cacheExpiresAt) {
		return c.sheetIDs, nil
	}
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	ids := make(map[string]int64, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}
	c.sheetIDs = ids
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	return ids, nil
}

func (c *Client) invalidateSheets() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sheetIDs = nil
	c.cacheExpiresAt = time.Time{}
}

// ensureTab creates tab with its header row when it does not exist yet.
func (c *Client) ensureTab(ctx context.Context, tab string, header []any) error {
	ids, err := c.sheets(ctx)
	if err != nil {
		return err
	}
	if _, ok := ids[tab]; ok {
		return nil
	}
	c.logger.InfoContext(ctx, "Creating tab", "tab", tab)
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create tab %s: %w", tab, err)
	}
	c.invalidateSheets()
	rng := fmt.Sprintf("%s!A1:%s1", quoteTab(tab), lastColumn(header))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", tab, err)
	}
	return nil
}

func (c *Client) GetBudgets(ctx context.Context) ([]core.Budget, error) {
	values, err := c.readRows(ctx, BudgetsTab, budgetHeader)
	if err != nil {
		return nil, err
	}
	return parseRows(values, parseBudgetRow)
}

func (c *Client) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	id, err := c.appendRow(ctx, BudgetsTab, budgetHeader, budgetRow(b))
	if err != nil {
		return core.Budget{}, err
	}
	return b.WithID(id), nil
}

func (c *Client) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := c.updateRow(ctx, BudgetsTab, budgetHeader, b.ID, budgetRow(b)); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (c *Client) DeleteBudget(ctx context.Context, id int) error {
	return c.deleteRow(ctx, BudgetsTab, id)
}

func (c *Client) GetExpenses(ctx context.Context, country string) ([]core.Expense, error) {
	values, err := c.readRows(ctx, countryTab(ExpensesPrefix, country), expenseHeader)
	if err != nil {
		return nil, err
	}
	return parseRows(values, func(id int, row []any) (core.Expense, error) {
		return parseExpenseRow(id, country, row)
	})
}

func (c *Client) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	id, err := c.appendRow(ctx, countryTab(ExpensesPrefix, e.Country), expenseHeader, expenseRow(e))
	if err != nil {
		return core.Expense{}, err
	}
	return e.WithID(id), nil
}

// UpdateExpense rewrites the row, or moves it to the new country's tab.
func (c *Client) UpdateExpense(ctx context.Context, previous, updated core.Expense) (core.Expense, error) {
	if previous.Country == updated.Country {
		updated.ID = previous.ID
		if err := c.updateRow(ctx, countryTab(ExpensesPrefix, updated.Country), expenseHeader, updated.ID, expenseRow(updated)); err != nil {
			return core.Expense{}, err
		}
		return updated, nil
	}
	id, err := c.moveRow(ctx,
		countryTab(ExpensesPrefix, previous.Country), previous.ID,
		countryTab(ExpensesPrefix, updated.Country), expenseHeader, expenseRow(updated))
	if err != nil {
		return core.Expense{}, fmt.Errorf("move expense: %w", err)
	}
	return updated.WithID(id), nil
}

func (c *Client) DeleteExpense(ctx context.Context, country string, id int) error {
	return c.deleteRow(ctx, countryTab(ExpensesPrefix, country), id)
}

func (c *Client) GetAttractions(ctx context.Context, country string) ([]core.Attraction, error) {
	values, err := c.readRows(ctx, countryTab(AttractionsPrefix, country), attractionHeader)
	if err != nil {
		return nil, err
	}
	return parseRows(values, func(id int, row []any) (core.Attraction, error) {
		return parseAttractionRow(id, country, row)
	})
}

func (c *Client) CreateAttraction(ctx context.Context, a core.Attraction) (core.Attraction, error) {
	id, err := c.appendRow(ctx, countryTab(AttractionsPrefix, a.Country), attractionHeader, attractionRow(a))
	if err != nil {
		return core.Attraction{}, err
	}
	return a.WithID(id), nil
}

func (c *Client) UpdateAttraction(ctx context.Context, previous, updated core.Attraction) (core.Attraction, error) {
	if previous.Country == updated.Country {
		updated.ID = previous.ID
		if err := c.updateRow(ctx, countryTab(AttractionsPrefix, updated.Country), attractionHeader, updated.ID, attractionRow(updated)); err != nil {
			return core.Attraction{}, err
		}
		return updated, nil
	}
	id, err := c.moveRow(ctx,
		countryTab(AttractionsPrefix, previous.Country), previous.ID,
		countryTab(AttractionsPrefix, updated.Country), attractionHeader, attractionRow(updated))
	if err != nil {
		return core.Attraction{}, fmt.Errorf("move attraction: %w", err)
	}
	return updated.WithID(id), nil
}

func (c *Client) DeleteAttraction(ctx context.Context, country string, id int) error {
	return c.deleteRow(ctx, countryTab(AttractionsPrefix, country), id)
}

func (c *Client) GetChecklistItems(ctx context.Context) ([]core.ChecklistItem, error) {
	values, err := c.readRows(ctx, ChecklistTab, checklistHeader)
	if err != nil {
		return nil, err
	}
	return parseRows(values, parseChecklistRow)
}

func (c *Client) CreateChecklistItem(ctx context.Context, item core.ChecklistItem) (core.ChecklistItem, error) {
	id, err := c.appendRow(ctx, ChecklistTab, checklistHeader, checklistRow(item))
	if err != nil {
		return core.ChecklistItem{}, err
	}
	return item.WithID(id), nil
}

func (c *Client) UpdateChecklistItem(ctx context.Context, item core.ChecklistItem) (core.ChecklistItem, error) {
	if err := c.updateRow(ctx, ChecklistTab, checklistHeader, item.ID, checklistRow(item)); err != nil {
		return core.ChecklistItem{}, err
	}
	return item, nil
}

func (c *Client) DeleteChecklistItem(ctx context.Context, id int) error {
	return c.deleteRow(ctx, ChecklistTab, id)
}

func (c *Client) GetReservations(ctx context.Context) ([]core.Reservation, error) {
	values, err := c.readRows(ctx, ReservationsTab, reservationHeader)
	if err != nil {
		return nil, err
	}
	return parseRows(values, parseReservationRow)
}

func (c *Client) CreateReservation(ctx context.Context, r core.Reservation) (core.Reservation, error) {
	id, err := c.appendRow(ctx, ReservationsTab, reservationHeader, reservationRow(r))
	if err != nil {
		return core.Reservation{}, err
	}
	return r.WithID(id), nil
}

func (c *Client) UpdateReservation(ctx context.Context, r core.Reservation) (core.Reservation, error) {
	if err := c.updateRow(ctx, ReservationsTab, reservationHeader, r.ID, reservationRow(r)); err != nil {
		return core.Reservation{}, err
	}
	return r, nil
}

func (c *Client) DeleteReservation(ctx context.Context, id int) error {
	return c.deleteRow(ctx, ReservationsTab, id)
}

// ListCountries derives the trip countries from the per-country tab names.
func (c *Client) ListCountries(ctx context.Context) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	ids, err := c.sheets(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ids))
	for title := range ids {
		titles = append(titles, title)
	}
	return countriesFromTabs(titles), nil
}

func countriesFromTabs(titles []string) []string {
	seen := map[string]struct{}{}
	for _, title := range titles {
		for _, prefix := range []string{ExpensesPrefix, AttractionsPrefix} {
			if country, ok := strings.CutPrefix(title, prefix+" "); ok && strings.TrimSpace(country) != "" {
				seen[strings.TrimSpace(country)] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// GetBudgetSummary aggregates the budgets tab and every expenses tab.
func (c *Client) GetBudgetSummary(ctx context.Context) (core.BudgetSummary, error) {
	budgets, err := c.GetBudgets(ctx)
	if err != nil {
		return core.BudgetSummary{}, err
	}
	countries, err := c.ListCountries(ctx)
	if err != nil {
		return core.BudgetSummary{}, err
	}
	var expenses []core.Expense
	for _, country := range countries {
		es, err := c.GetExpenses(ctx, country)
		if err != nil {
			return core.BudgetSummary{}, err
		}
		expenses = append(expenses, es...)
	}
	return dashboard.ComputeSummary(budgets, expenses), nil
}
