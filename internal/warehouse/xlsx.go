package warehouse

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/facility-match/internal/model"
)

// ParseFacilityXLSX reads a facility registry workbook. The first row of the
// sheet is the header, as in ParseFacilityCSV. An empty sheet name selects
// the first sheet.
func ParseFacilityXLSX(path, sheet string) ([]model.FacilityRecord, error) {
	records, err := readSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	return facilitiesFrom(records)
}

// ParseAccountXLSX reads a CRM account workbook.
func ParseAccountXLSX(path, sheet string) ([]model.AccountRecord, error) {
	records, err := readSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	return accountsFrom(records)
}

func readSheet(path, name string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, name)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, rowToStrings(row))
	}
	return rows, nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
