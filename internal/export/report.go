package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/outorga-facil/filing-pipeline/internal/entity"
)

const reportSheet = "Verificação"

// WriteVerificationReport writes the criterion results to an XLSX workbook
// so the verdicts can be reviewed outside the tool.
func WriteVerificationReport(projectName string, results []entity.CriterionResult, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), reportSheet)

	headers := []string{"ID", "Critério", "Status", "Justificativa", "Verificado em", "Sobrescrito em"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(reportSheet, cell, h)
	}

	for row, r := range results {
		overridden := ""
		if r.OverriddenAt != nil {
			overridden = r.OverriddenAt.Format("2006-01-02 15:04")
		}
		cols := []any{
			r.CriterionID,
			r.Title,
			string(r.Status),
			r.Justification,
			r.CheckedAt.Format("2006-01-02 15:04"),
			overridden,
		}
		for i, v := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, row+2)
			f.SetCellValue(reportSheet, cell, v)
		}
	}

	f.SetColWidth(reportSheet, "A", "A", 14)
	f.SetColWidth(reportSheet, "B", "B", 42)
	f.SetColWidth(reportSheet, "C", "C", 18)
	f.SetColWidth(reportSheet, "D", "D", 70)
	f.SetColWidth(reportSheet, "E", "F", 18)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write verification report: %w", err)
	}
	logger.Info("export.report.ok", "project", projectName, "path", path, "rows", len(results))
	return nil
}
