package exports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// countWorkbookRows counts the data rows of the first sheet, header excluded.
func countWorkbookRows(data []byte) (int64, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return 0, fmt.Errorf("no worksheet found")
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return 0, err
	}
	if len(rows) <= 1 {
		return 0, nil
	}
	return int64(len(rows) - 1), nil
}
