package dashboard

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/facility-match/internal/model"
)

// ExportBaseName is the download file name without extension.
const ExportBaseName = "correctional_facilities_matches"

// ExportColumns is the header row of CSV and XLSX exports.
var ExportColumns = []string{
	"facility_name", "original_notes", "countyname", "statename",
	"inmate_population", "full_address", "so_operated_flag",
	"latitude", "longitude",
	"salesforce_account_id", "salesforce_account_name", "salesforce_link",
	"sf_state", "sf_city", "sf_account_type",
	"match_score", "match_confidence",
}

// exportValues returns a row's export cells. Absent values are nil.
func exportValues(r model.MatchedRow) []any {
	vals := []any{
		r.FacilityName, r.Notes, r.CountyName, r.StateName,
		nil, r.FullAddress, r.StateOperated,
		nil, nil,
		nil, nil, nil, nil, nil, nil,
		r.Score, r.Confidence.String(),
	}
	if r.Population != nil {
		vals[4] = *r.Population
	}
	if r.Latitude != nil {
		vals[7] = *r.Latitude
	}
	if r.Longitude != nil {
		vals[8] = *r.Longitude
	}
	if a := r.Account; a != nil {
		vals[9], vals[10], vals[11] = a.ID, a.Name, r.AccountLink
		vals[12], vals[13], vals[14] = a.BillingState, a.BillingCity, a.Type
	}
	return vals
}

func csvValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// WriteCSV writes rows as CSV with a header row.
func WriteCSV(w io.Writer, rows []model.MatchedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	record := make([]string, len(ExportColumns))
	for _, r := range rows {
		for i, v := range exportValues(r) {
			record[i] = csvValue(v)
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes rows as a single-sheet workbook with a header row.
// Numeric and boolean columns keep their cell types.
func WriteXLSX(w io.Writer, rows []model.MatchedRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Matches")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range ExportColumns {
		header.AddCell().SetString(col)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range exportValues(r) {
			cell := row.AddCell()
			switch v := v.(type) {
			case string:
				cell.SetString(v)
			case int:
				cell.SetInt(v)
			case float64:
				cell.SetFloat(v)
			case bool:
				cell.SetBool(v)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}
