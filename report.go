package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

func writeReport(path, format string, recordID string, view DashboardView) error {
	format, err := normalizeReportFormat(path, format)
	if err != nil {
		return err
	}
	if format == "json" {
		content, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		return writeReportOutput(path, append(content, '\n'))
	}
	return writeReportOutput(path, []byte(buildReportText(recordID, view)))
}

// normalizeReportFormat resolves an empty format from the output file
// extension, defaulting to text.
func normalizeReportFormat(path, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return "json", nil
		}
		return "text", nil
	}
	switch format {
	case "text", "json":
		return format, nil
	}
	return "", fmt.Errorf("unsupported report format %q (want text or json)", format)
}

func writeReportOutput(path string, content []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(content)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, content, 0o644)
}

func buildReportText(recordID string, view DashboardView) string {
	bacs := make([]string, 0, len(view.BACOptions))
	for _, o := range view.BACOptions {
		label := o.Label
		if o.Value != o.Label {
			label = fmt.Sprintf("%s (%s)", o.Label, o.Value)
		}
		if o.Value == view.SelectedBAC {
			label = "*" + label
		}
		bacs = append(bacs, label)
	}

	months := "None"
	if len(view.MonthLabels) > 0 {
		months = strings.Join(view.MonthLabels, " · ")
	}

	lines := []string{
		"Dealer Performance Dashboard",
		fmt.Sprintf("Record: %s · BAC: %s", recordID, orDash(view.SelectedBAC)),
		fmt.Sprintf("BAC options: %s", orDash(strings.Join(bacs, ", "))),
		fmt.Sprintf("Months: %s", months),
		fmt.Sprintf("F&I sections: %d", len(view.FISections)),
		"",
		"Opportunities",
		renderOppsTable(view.OppsTable),
		"",
		"Contacts",
		renderContactsTable(view.Contacts),
		"",
		"Scorecard: " + view.ScorecardLink,
		"Summary:   " + view.SummaryLink,
	}
	return strings.Join(lines, "\n") + "\n"
}

func renderOppsTable(rows []OppRow) string {
	if len(rows) == 0 {
		return "No opportunities."
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{"#"}, columnLabels(OppsColumns)...)...)
	for _, row := range oppCells(rows) {
		t = t.Row(row...)
	}
	return t.String()
}

func renderContactsTable(contacts []Contact) string {
	if len(contacts) == 0 {
		return "No contacts."
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(columnLabels(ContactColumns)...)
	for _, row := range contactCells(contacts) {
		t = t.Row(row...)
	}
	return t.String()
}

func columnLabels(columns []Column) []string {
	labels := make([]string, 0, len(columns))
	for _, c := range columns {
		labels = append(labels, c.Label)
	}
	return labels
}

// oppCells formats rows for display, id first, following OppsColumns.
func oppCells(rows []OppRow) [][]string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			strconv.Itoa(r.ID),
			r.ProductType,
			r.Product,
			formatColumnDate(r.EnrollDate),
			formatColumnDate(r.ExpDate),
			formatEnrolled(r.Enrolled),
		})
	}
	return cells
}

func contactCells(contacts []Contact) [][]string {
	cells := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		cells = append(cells, []string{c.Name, c.ContactTitle, c.Email, c.Phone})
	}
	return cells
}

// formatColumnDate renders ISO dates as MM/DD/YYYY, the date columns'
// display format. Anything else is shown unchanged.
func formatColumnDate(value string) string {
	parsed, ok := parseDateOptional(value)
	if !ok {
		return value
	}
	return parsed.Format("01/02/2006")
}

func parseDateOptional(value string) (time.Time, bool) {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func formatEnrolled(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
