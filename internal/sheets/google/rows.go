package google

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"viagem/internal/core"
)

// Column layouts. Row 1 of every tab is a header; data starts on row 2, so
// entity id N lives on sheet row N+1.
var (
	budgetHeader      = []any{"Origin", "Description", "Amount", "Date"}
	expenseHeader     = []any{"Description", "Amount", "Currency", "AmountInBRL", "Category", "BudgetOrigin", "Date", "Notes", "ReceiptURL"}
	attractionHeader  = []any{"Name", "City", "Region", "Day", "Date", "Order", "Type", "Visited", "NeedsReservation", "ReservationStatus", "CouplePrice", "Currency", "PriceInBRL", "Lat", "Lng", "Duration", "Notes", "ImageURL"}
	checklistHeader   = []any{"Description", "Category", "IsPacked", "Quantity", "Notes"}
	reservationHeader = []any{"Type", "Title", "Description", "Status", "Date", "EndDate", "Provider", "ConfirmationCode", "Amount", "Currency", "Country", "Notes"}
)

// lastColumn returns the A1 letter of the last column of header.
func lastColumn(header []any) string {
	return columnName(len(header))
}

// columnName converts a 1-based column index to A1 letters.
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

// rowNumber extracts the first row number of an A1 range like
// "'Expenses Itália'!A5:I5".
func rowNumber(a1 string) (int, error) {
	_, cells, ok := strings.Cut(a1, "!")
	if !ok {
		cells = a1
	}
	first, _, _ := strings.Cut(cells, ":")
	digits := strings.TrimLeft(first, "ABCDEFGHIJKLMNOPQRSTUVWXYZ$")
	n, err := strconv.Atoi(strings.TrimPrefix(digits, "$"))
	if err != nil {
		return 0, fmt.Errorf("parse range %q: %w", a1, err)
	}
	return n, nil
}

func cellString(row []any, i int) string {
	if i < 0 || i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

// cellNumber reads numbers rendered either raw (float64) or as text; see
// normalizeNumber for the text forms.
func cellNumber(row []any, i int) (float64, error) {
	if i < len(row) {
		if f, ok := row[i].(float64); ok {
			return f, nil
		}
	}
	s := cellString(row, i)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(normalizeNumber(s))
	if err != nil {
		return 0, fmt.Errorf("column %s: invalid number %q", columnName(i+1), cellString(row, i))
	}
	return d.InexactFloat64(), nil
}

// normalizeNumber rewrites a text number into decimal.NewFromString form.
// Accepted: "1.234,56" and "1,234.56" (the last separator is the decimal
// one), "12,5" and "12.5", and a lone separator kind used for grouping:
// "1.234", "1,234", "1.234.567". A single separator followed by exactly
// three digits after a non-zero integer part is read as grouping.
func normalizeNumber(s string) string {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if dot > comma {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case comma < 0 && dot < 0:
		return s
	}

	sep := ","
	if dot >= 0 {
		sep = "."
	}
	if isGrouping(s, sep) {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

func isGrouping(s, sep string) bool {
	parts := strings.Split(s, sep)
	if len(parts) > 2 {
		return true
	}
	intPart := strings.TrimLeft(parts[0], "+-")
	return len(parts[1]) == 3 && intPart != "" && strings.Trim(intPart, "0") != ""
}

func cellInt(row []any, i int) (int, error) {
	f, err := cellNumber(row, i)
	return int(f), err
}

func cellOptionalNumber(row []any, i int) (*float64, error) {
	if cellString(row, i) == "" {
		return nil, nil
	}
	f, err := cellNumber(row, i)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func cellBool(row []any, i int) bool {
	if i < len(row) {
		if b, ok := row[i].(bool); ok {
			return b
		}
	}
	switch strings.ToLower(cellString(row, i)) {
	case "true", "sim", "yes", "1", "x":
		return true
	}
	return false
}

func cellDate(row []any, i int) (core.Date, error) {
	s := cellString(row, i)
	if s == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("column %s: %w", columnName(i+1), err)
	}
	return d, nil
}

func optionalNumber(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}

// rowDecoder accumulates the first decoding error so row parsers stay flat.
type rowDecoder struct {
	row []any
	err error
}

func (d *rowDecoder) str(i int) string { return cellString(d.row, i) }

func (d *rowDecoder) flag(i int) bool { return cellBool(d.row, i) }

func (d *rowDecoder) num(i int) float64 {
	f, err := cellNumber(d.row, i)
	d.keep(err)
	return f
}

func (d *rowDecoder) integer(i int) int {
	n, err := cellInt(d.row, i)
	d.keep(err)
	return n
}

func (d *rowDecoder) optNum(i int) *float64 {
	f, err := cellOptionalNumber(d.row, i)
	d.keep(err)
	return f
}

func (d *rowDecoder) date(i int) core.Date {
	v, err := cellDate(d.row, i)
	d.keep(err)
	return v
}

func (d *rowDecoder) keep(err error) {
	if d.err == nil && err != nil {
		d.err = err
	}
}

func budgetRow(b core.Budget) []any {
	return []any{b.Origin, b.Description, b.Amount, b.Date.Key()}
}

func parseBudgetRow(id int, row []any) (core.Budget, error) {
	d := rowDecoder{row: row}
	b := core.Budget{
		ID:          id,
		Origin:      d.str(0),
		Description: d.str(1),
		Amount:      d.num(2),
		Date:        d.date(3),
	}
	return b, d.err
}

func expenseRow(e core.Expense) []any {
	return []any{e.Description, e.Amount, e.Currency, e.AmountInBRL, e.Category, e.BudgetOrigin, e.Date.Key(), e.Notes, e.ReceiptURL}
}

// parseExpenseRow decodes a row of a country tab; the country comes from
// the tab name.
func parseExpenseRow(id int, country string, row []any) (core.Expense, error) {
	d := rowDecoder{row: row}
	e := core.Expense{
		ID:           id,
		Description:  d.str(0),
		Amount:       d.num(1),
		Currency:     strings.ToUpper(d.str(2)),
		AmountInBRL:  d.num(3),
		Category:     d.str(4),
		BudgetOrigin: d.str(5),
		Date:         d.date(6),
		Country:      country,
		Notes:        d.str(7),
		ReceiptURL:   d.str(8),
	}
	return e, d.err
}

func attractionRow(a core.Attraction) []any {
	return []any{
		a.Name, a.City, a.Region, a.Day, a.Date.Key(), a.Order, a.Type,
		a.Visited, a.NeedsReservation, string(a.ReservationStatus),
		a.CouplePrice, a.Currency, a.PriceInBRL,
		optionalNumber(a.Lat), optionalNumber(a.Lng), a.Duration, a.Notes, a.ImageURL,
	}
}

func parseAttractionRow(id int, country string, row []any) (core.Attraction, error) {
	d := rowDecoder{row: row}
	a := core.Attraction{
		ID:                id,
		Name:              d.str(0),
		Country:           country,
		City:              d.str(1),
		Region:            d.str(2),
		Day:               d.integer(3),
		Date:              d.date(4),
		Order:             d.integer(5),
		Type:              d.str(6),
		Visited:           d.flag(7),
		NeedsReservation:  d.flag(8),
		ReservationStatus: core.ReservationStatus(strings.ToLower(d.str(9))),
		CouplePrice:       d.num(10),
		Currency:          strings.ToUpper(d.str(11)),
		PriceInBRL:        d.num(12),
		Lat:               d.optNum(13),
		Lng:               d.optNum(14),
		Duration:          d.integer(15),
		Notes:             d.str(16),
		ImageURL:          d.str(17),
	}
	return a, d.err
}

func checklistRow(c core.ChecklistItem) []any {
	return []any{c.Description, c.Category, c.IsPacked, c.Quantity, c.Notes}
}

func parseChecklistRow(id int, row []any) (core.ChecklistItem, error) {
	d := rowDecoder{row: row}
	c := core.ChecklistItem{
		ID:          id,
		Description: d.str(0),
		Category:    d.str(1),
		IsPacked:    d.flag(2),
		Quantity:    d.integer(3),
		Notes:       d.str(4),
	}
	return c, d.err
}

func reservationRow(r core.Reservation) []any {
	return []any{
		string(r.Type), r.Title, r.Description, string(r.Status), r.Date.Key(), r.EndDate.Key(),
		r.Provider, r.ConfirmationCode, r.Amount, r.Currency, r.Country, r.Notes,
	}
}

func parseReservationRow(id int, row []any) (core.Reservation, error) {
	d := rowDecoder{row: row}
	r := core.Reservation{
		ID:               id,
		Type:             core.ReservationType(strings.ToLower(d.str(0))),
		Title:            d.str(1),
		Description:      d.str(2),
		Status:           core.ReservationStatus(strings.ToLower(d.str(3))),
		Date:             d.date(4),
		EndDate:          d.date(5),
		Provider:         d.str(6),
		ConfirmationCode: d.str(7),
		Amount:           d.num(8),
		Currency:         strings.ToUpper(d.str(9)),
		Country:          d.str(10),
		Notes:            d.str(11),
	}
	return r, d.err
}

// parseRows decodes every data row; ids follow row positions.
func parseRows[E any](values [][]any, parse func(id int, row []any) (E, error)) ([]E, error) {
	out := make([]E, 0, len(values))
	for i, row := range values {
		e, err := parse(i+1, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, e)
	}
	return out, nil
}
