package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/wonny/holdings/internal/contracts"
	"github.com/wonny/holdings/internal/schema"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	singleRule = "───────────────────────────────────────────────────────────"
	doubleRule = "═══════════════════════════════════════════════════════════"
	emptyCell  = "–"
)

// printer writes human-readable output for one command
type printer struct {
	w        io.Writer
	currency string
}

func newPrinter(w io.Writer, currency string) *printer {
	return &printer{w: w, currency: currency}
}

// Header prints a titled block
func (p *printer) Header(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, doubleRule)
	fmt.Fprintf(p.w, "  %s\n", title)
	fmt.Fprintln(p.w, singleRule)
}

func (p *printer) Separator() {
	fmt.Fprintln(p.w, singleRule)
}

func (p *printer) Success(message string) {
	fmt.Fprintf(p.w, "✅ %s\n", message)
}

func (p *printer) Warning(message string) {
	fmt.Fprintf(p.w, "⚠️  %s\n", message)
}

func (p *printer) Error(message string) {
	fmt.Fprintf(p.w, "❌ %s\n", message)
}

func (p *printer) Info(message string) {
	fmt.Fprintf(p.w, "ℹ️  %s\n", message)
}

// List prints a bulleted list
func (p *printer) List(items []string) {
	for _, item := range items {
		fmt.Fprintf(p.w, "   • %s\n", item)
	}
}

// KeyValue prints one aligned key-value pair
func (p *printer) KeyValue(key, value string, keyWidth int) {
	fmt.Fprintf(p.w, "   %-*s : %s\n", keyWidth, key, value)
}

// Table prints rows under columns, sizing every column to its widest cell
func (p *printer) Table(columns []string, rows [][]string) {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	p.row(columns, widths)
	total := 0
	for i, w := range widths {
		total += w
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	fmt.Fprintln(p.w, strings.Repeat("─", total))
	for _, row := range rows {
		p.row(row, widths)
	}
}

func (p *printer) row(values []string, widths []int) {
	for i, val := range values {
		if i >= len(widths) {
			break
		}
		pad := widths[i] - utf8.RuneCountInString(val)
		fmt.Fprint(p.w, val)
		if i < len(values)-1 {
			fmt.Fprint(p.w, strings.Repeat(" ", pad+2))
		}
	}
	fmt.Fprintln(p.w)
}

// Money renders amount in the printer's currency
func (p *printer) Money(amount float64) string {
	return formatMoney(amount, p.currency)
}

// formatMoney renders amount with the currency's symbol and separators;
// unknown currency codes fall back to a plain two-decimal figure
func formatMoney(amount float64, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return strconv.FormatFloat(amount, 'f', 2, 64) + " " + code
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// Cell renders one entity field for a table
func (p *printer) Cell(sc *schema.Schema, field string, v any, ok bool) string {
	if !ok || v == nil {
		return emptyCell
	}
	switch n := v.(type) {
	case float64:
		if sc != nil && sc.IsMoney(field) {
			return p.Money(n)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case contracts.Date:
		if n.IsZero() {
			return emptyCell
		}
		return string(n)
	case string:
		if n == "" {
			return emptyCell
		}
		return n
	}
	return fmt.Sprint(v)
}

// columns returns the id, the declared headers and the derived fields of a kind
func columns(sc *schema.Schema) []string {
	cols := append([]string{"id"}, sc.Headers()...)
	return append(cols, sc.Derived...)
}

// entityRows renders entities under cols
func (p *printer) entityRows(sc *schema.Schema, cols []string, items []contracts.Entity) [][]string {
	rows := make([][]string, 0, len(items))
	for _, e := range items {
		row := make([]string, len(cols))
		for i, col := range cols {
			v, ok := e.Field(col)
			row[i] = p.Cell(sc, col, v, ok)
		}
		rows = append(rows, row)
	}
	return rows
}
