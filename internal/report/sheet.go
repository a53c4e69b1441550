package report

import (
	"fmt"
	"time"

	"github.com/segyhp/dialoger-export/internal/domain"
)

// Fill colours of the three buckets (RGB hex)
const (
	ColorOnce              = "92D050"
	ColorLSVWithInitial    = "95B3D7"
	ColorLSVWithoutInitial = "B7DEE8"
)

// Summary block labels
const (
	LabelClosing           = "Abschluss:"
	LabelPaymentMethod     = "Zahlungsmethode:"
	LabelOnce              = "Einmalzahlung"
	LabelLSVWithInitial    = "LSV mit EZ"
	LabelLSVWithoutInitial = "LSV ohne EZ"
)

// summaryOffset is the distance from the last data row to the first summary row
const summaryOffset = 4

// Column describes one report column
type Column struct {
	Header   string
	Key      string
	Width    float64
	WrapText bool
}

// Columns is the fixed report layout; Row.Values follows the same order
var Columns = []Column{
	{Header: "Datum", Key: "date", Width: 11},
	{Header: "Dialoger", Key: "dialoger", Width: 20},
	{Header: "Standplatz", Key: "location", Width: 30},
	{Header: "Betrag", Key: "amount", Width: 10, WrapText: true},
	{Header: "Dialoger-Anteil", Key: "dialoger_share", Width: 15},
	{Header: "Zahlungsmethode", Key: "payment_method", Width: 22},
	{Header: "Zahlungsstatus", Key: "payment_status", Width: 17},
	{Header: "Zahlungsintervall", Key: "payment_interval", Width: 19},
	{Header: "Gönner Name", Key: "donor_last_name", Width: 20},
	{Header: "Gönner Vorname", Key: "donor_first_name", Width: 20},
}

// Rule is a conditional fill applied when Formula evaluates to true.
// The formula is relative to the top-left cell of the range.
type Rule struct {
	Formula string
	Color   string
}

// ConditionalFormat attaches rules to a cell range. The rules are evaluated by
// the spreadsheet application, not by this package.
type ConditionalFormat struct {
	Range string
	Rules []Rule
}

// Cell is a single free-standing cell outside the data rows
type Cell struct {
	Ref   string
	Value any
	Fill  string
}

// Sheet is one worksheet of the export
type Sheet struct {
	Name    string
	Columns []Column
	Rows    []Row
	Formats []ConditionalFormat
	Cells   []Cell
	Summary Summary
}

// Workbook is the whole export: the all-payments sheet followed by one sheet per dialoger
type Workbook struct {
	Sheets []*Sheet
}

// Sheet returns the sheet with the given name or nil
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// methodRules keys the amount column fill on the method label in column F
var methodRules = []struct {
	label string
	color string
}{
	{MethodSumUp, ColorOnce},
	{MethodTwint, ColorOnce},
	{MethodLSVSumUp, ColorLSVWithInitial},
	{MethodLSVTwint, ColorLSVWithInitial},
	{MethodLSVWithoutFirstPay, ColorLSVWithoutInitial},
}

// SheetBuilder turns payment records into sheets using shared directories
type SheetBuilder struct {
	users     *Directory
	locations *Directory
	loc       *time.Location
}

func NewSheetBuilder(users, locations *Directory, loc *time.Location) *SheetBuilder {
	if loc == nil {
		loc = time.UTC
	}
	return &SheetBuilder{
		users:     users,
		locations: locations,
		loc:       loc,
	}
}

// Build creates a sheet from payments in the given order. It never fails;
// an empty payment list yields the header and a zero-valued summary.
func (b *SheetBuilder) Build(name string, payments []*domain.Payment) *Sheet {
	sheet := &Sheet{
		Name:    name,
		Columns: Columns,
		Rows:    make([]Row, 0, len(payments)),
	}

	for _, p := range payments {
		row, category := Project(p, b.users, b.locations, b.loc)
		sheet.Rows = append(sheet.Rows, row)
		sheet.Summary.Add(category.Bucket, p.Amount)
	}

	n := len(payments)
	if n > 0 {
		sheet.Formats = []ConditionalFormat{amountFormat(n)}
	}
	sheet.Cells = summaryCells(n, sheet.Summary)

	return sheet
}

// amountFormat colours the amount cells D2:D{n+1} by payment method
func amountFormat(n int) ConditionalFormat {
	rules := make([]Rule, 0, len(methodRules))
	for _, r := range methodRules {
		rules = append(rules, Rule{
			Formula: fmt.Sprintf("F2=%q", r.label),
			Color:   r.color,
		})
	}
	return ConditionalFormat{
		Range: fmt.Sprintf("D2:D%d", n+1),
		Rules: rules,
	}
}

// summaryCells lays out the closing block four rows below the last data row.
// The payment method legend row is a heading only and is filled in by hand.
func summaryCells(n int, s Summary) []Cell {
	first := n + 1 + summaryOffset

	return []Cell{
		{Ref: fmt.Sprintf("B%d", first), Value: LabelClosing},
		{Ref: fmt.Sprintf("C%d", first), Value: LabelOnce, Fill: ColorOnce},
		{Ref: fmt.Sprintf("D%d", first), Value: s.Once, Fill: ColorOnce},
		{Ref: fmt.Sprintf("C%d", first+1), Value: LabelLSVWithInitial, Fill: ColorLSVWithInitial},
		{Ref: fmt.Sprintf("D%d", first+1), Value: s.LSVWithInitial, Fill: ColorLSVWithInitial},
		{Ref: fmt.Sprintf("C%d", first+2), Value: LabelLSVWithoutInitial, Fill: ColorLSVWithoutInitial},
		{Ref: fmt.Sprintf("D%d", first+2), Value: s.LSVWithoutInitial, Fill: ColorLSVWithoutInitial},
		{Ref: fmt.Sprintf("B%d", first+4), Value: LabelPaymentMethod},
	}
}
