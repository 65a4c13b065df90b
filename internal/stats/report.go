package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/prepdesk/progress-engine/internal/curriculum"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Accuracy"

// WriteReport renders a statistics map as an xlsx workbook: one row per
// curriculum node in tree order, titles indented by depth.
func WriteReport(w io.Writer, tree *curriculum.Tree, statsByNode map[string]NodeStatistics) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", reportSheet)

	headers := []string{"Node", "Attempts", "Correct", "Wrong", "Accuracy %"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(reportSheet, cell, h); err != nil {
			return fmt.Errorf("write report header: %w", err)
		}
	}

	row := 2
	var writeErr error
	tree.Walk(func(n *curriculum.Node, depth int) {
		if writeErr != nil {
			return
		}
		st := statsByNode[n.ID]
		values := []any{
			strings.Repeat("  ", depth) + n.Title,
			st.TotalAttempts,
			st.Correct,
			st.Wrong,
			st.AccuracyPct,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(reportSheet, cell, v); err != nil {
				writeErr = fmt.Errorf("write report row %d: %w", row, err)
				return
			}
		}
		row++
	})
	if writeErr != nil {
		return writeErr
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
