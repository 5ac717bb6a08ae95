// Package report renders the manager dashboard as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// Sheet names of the exported workbook.
const (
	SheetSummary   = "Summary"
	SheetEmployees = "Top Employees"
	SheetCustomers = "Top Customers"
	SheetRoutes    = "Top Routes"
	SheetMonths    = "Top Months"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FileName names the export after the generation date.
func FileName(d model.Dashboard) string {
	return fmt.Sprintf("dashboard-%s.xlsx", d.GeneratedAt.UTC().Format(time.DateOnly))
}

// WriteDashboard writes d as a workbook with a summary sheet and one sheet
// per ranking.
func WriteDashboard(w io.Writer, d model.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	summary := [][]any{
		{"Generated", d.GeneratedAt.UTC().Format(time.RFC3339)},
		{"From", rangeBound(d.From)},
		{"To", rangeBound(d.To)},
		{"Revenue", d.Revenue},
		{"Cancellation rate (%)", d.CancelRate},
	}
	if err := writeRows(f, SheetSummary, []string{"Metric", "Value"}, summary); err != nil {
		return err
	}

	rankings := []struct {
		sheet  string
		header string
		items  []model.RankedItem
	}{
		{SheetEmployees, "Flight hours", d.TopEmployees},
		{SheetCustomers, "Spend", d.TopCustomers},
		{SheetRoutes, "Tickets", d.TopRoutes},
		{SheetMonths, "Orders", d.TopMonths},
	}
	for _, r := range rankings {
		if _, err := f.NewSheet(r.sheet); err != nil {
			return errors.Wrapf(err, "add sheet %s", r.sheet)
		}
		rows := make([][]any, 0, len(r.items))
		for i, it := range r.items {
			rows = append(rows, []any{i + 1, it.Name, it.Value})
		}
		if err := writeRows(f, r.sheet, []string{"Rank", "Name", r.header}, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []string, rows [][]any) error {
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.Wrapf(err, "write %s header", sheet)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "write %s!%s", sheet, cell)
			}
		}
	}
	return nil
}

func rangeBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.DateOnly)
}
