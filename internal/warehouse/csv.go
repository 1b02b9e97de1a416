package warehouse

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/facility-match/internal/model"
)

// header aliases accepted in registry and account exports, keyed by the
// canonical column name.
var headerAliases = map[string]string{
	"state_name":          "statename",
	"state":               "statename",
	"county_name":         "countyname",
	"county":              "countyname",
	"population":          "instpop",
	"inmate_population":   "instpop",
	"state_operated_flag": "so_operated_flag",
	"account_id":          "id",
	"account_name":        "name",
	"account_type":        "type",
}

// ParseFacilityCSV reads a facility registry export (for example a Google
// Sheets download). Column order is free; blank numeric cells are absent.
func ParseFacilityCSV(r io.Reader) ([]model.FacilityRecord, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return facilitiesFrom(records)
}

// ParseAccountCSV reads a CRM account export with id and name columns.
func ParseAccountCSV(r io.Reader) ([]model.AccountRecord, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return accountsFrom(records)
}

func facilitiesFrom(records [][]string) ([]model.FacilityRecord, error) {
	rows, err := keyRows(records, "facility_name")
	if err != nil {
		return nil, err
	}

	out := make([]model.FacilityRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		f := model.FacilityRecord{
			FacilityName: row["facility_name"],
			Notes:        row["notes"],
			StateName:    row["statename"],
			CountyName:   row["countyname"],
			FullAddress:  row["full_address"],
		}
		if f.FacilityName == "" {
			return nil, eris.Errorf("csv: line %d: facility_name is empty", line)
		}
		if f.Population, err = optionalInt(row["instpop"]); err != nil {
			return nil, eris.Wrapf(err, "csv: line %d: instpop", line)
		}
		if f.Latitude, err = optionalFloat(row["latitude"]); err != nil {
			return nil, eris.Wrapf(err, "csv: line %d: latitude", line)
		}
		if f.Longitude, err = optionalFloat(row["longitude"]); err != nil {
			return nil, eris.Wrapf(err, "csv: line %d: longitude", line)
		}
		if f.StateOperated, err = flag(row["so_operated_flag"]); err != nil {
			return nil, eris.Wrapf(err, "csv: line %d: so_operated_flag", line)
		}
		out = append(out, f)
	}
	return out, nil
}

func accountsFrom(records [][]string) ([]model.AccountRecord, error) {
	rows, err := keyRows(records, "id", "name")
	if err != nil {
		return nil, err
	}

	out := make([]model.AccountRecord, 0, len(rows))
	for i, row := range rows {
		a := model.AccountRecord{
			ID:           row["id"],
			Name:         row["name"],
			BillingState: row["billing_state"],
			BillingCity:  row["billing_city"],
			Type:         row["type"],
		}
		if a.ID == "" {
			return nil, eris.Errorf("csv: line %d: id is empty", i+2)
		}
		if a.IsDeleted, err = flag(row["is_deleted"]); err != nil {
			return nil, eris.Wrapf(err, "csv: line %d: is_deleted", i+2)
		}
		out = append(out, a)
	}
	return out, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read")
	}
	return records, nil
}

// keyRows treats the first record as the header and returns each following
// record keyed by canonical column name. Blank records are skipped.
func keyRows(records [][]string, required ...string) ([]map[string]string, error) {
	if len(records) == 0 {
		return nil, eris.New("csv: empty file")
	}

	header := records[0]
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canon, ok := headerAliases[h]; ok {
			h = canon
		}
		names[i] = h
		seen[h] = true
	}
	for _, col := range required {
		if !seen[col] {
			return nil, eris.Errorf("csv: missing required column %q", col)
		}
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if blank(record) {
			continue
		}
		row := make(map[string]string, len(names))
		for i, v := range record {
			if i < len(names) {
				row[names[i]] = strings.TrimSpace(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	// Sheets exports integers as "1,234" or "1234.0".
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	n := int(f)
	return &n, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return coordinate(f, true), nil
}

func flag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "n", "no", "false", "f":
		return false, nil
	case "1", "y", "yes", "true", "t", "x":
		return true, nil
	}
	return false, eris.Errorf("not a boolean: %q", s)
}
