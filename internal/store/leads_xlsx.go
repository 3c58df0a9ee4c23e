package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"jobapply-engine/internal/domain"
)

const leadsSheet = "Leads"

// WriteLeadsXLSX writes the same rows as WriteLeads into a workbook, for
// people who triage leads in a spreadsheet.
func WriteLeadsXLSX(path string, leads []domain.Lead) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", leadsSheet); err != nil {
		return err
	}

	header := make([]any, len(LeadsColumns))
	for i, c := range LeadsColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(leadsSheet, "A1", &header); err != nil {
		return err
	}

	for i, l := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{l.Title, l.Email, l.URL}
		if err := f.SetSheetRow(leadsSheet, cell, &row); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(leadsSheet, "A", "A", 50)
	_ = f.SetColWidth(leadsSheet, "B", "B", 32)
	_ = f.SetColWidth(leadsSheet, "C", "C", 90)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx %s: %w", path, err)
	}
	return nil
}
