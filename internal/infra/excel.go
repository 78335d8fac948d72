package infra

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mudogruer/istakip-18.01.26/internal/model"
)

// ExportMovementsXLSX renders the movement ledger as a spreadsheet for the
// office. Rows keep ledger order (newest first, as listed).
func ExportMovementsXLSX(movements []model.StockMovement) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Movements"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Item", "Product Code", "Color Code", "Change", "Type", "Reason", "Operator", "Job"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheet, "A1", "I1", headerStyle)
	}

	for i, m := range movements {
		row := i + 2
		values := []interface{}{m.Date, m.ItemName, m.ProductCode, m.ColorCode, m.Change, m.Type, m.Reason, m.Operator, m.JobID}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "B", 30)
	_ = f.SetColWidth(sheet, "G", "G", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: write buffer: %w", err)
	}
	return buf, nil
}
