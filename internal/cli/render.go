package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/tally/pkg/store"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// columns lists the table columns shown for each resource after the id.
var columns = map[string][]string{
	types.ResourceEmployees: {"first_name", "last_name", "email", "department", "status"},
	types.ResourceSalaries:  {"employee_id", "amount", "currency", "period", "effective_at"},
	types.ResourceInvoices:  {"number", "vendor_id", "amount", "currency", "status", "due_at"},
	types.ResourceOffices:   {"name", "city", "country"},
	types.ResourceBranches:  {"name", "code", "region"},
	types.ResourceVendors:   {"name", "email", "category"},
	types.ResourceJobs:      {"title", "department", "status", "posted_at"},
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true)
)

// cell formats a field value for the table.
func cell(v any, ok bool) string {
	if !ok || v == nil {
		return ""
	}
	switch v := v.(type) {
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format("2006-01-02")
	case decimal.Decimal:
		return v.StringFixed(2)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

// renderPage writes one page of entities as a table followed by a footer.
func renderPage(w io.Writer, resource string, page store.PageResult[types.Entity]) {
	cols := append([]string{"id"}, columns[resource]...)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(cols...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, e := range page.Items {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = cell(e.Field(c))
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())

	pages := max(page.Pages, 1)
	fmt.Fprintln(w, footerStyle.Render(fmt.Sprintf("page %d/%d, %d %s", page.Page+1, pages, page.Total, resource)))
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
