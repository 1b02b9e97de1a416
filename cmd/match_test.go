package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/facility-match/internal/model"
)

func matchedRows() []model.MatchedRow {
	return []model.MatchedRow{
		{
			FacilityRecord: model.FacilityRecord{FacilityName: "Travis County Jail", StateName: "Texas", CountyName: "Travis"},
			Account:        &model.AccountRecord{ID: "001A", Name: "Travis County Sheriff", BillingState: "Texas"},
			Score:          1,
			Confidence:     model.ConfidenceHigh,
			AccountLink:    "https://skydio.lightning.force.com/001A",
		},
		{
			FacilityRecord: model.FacilityRecord{FacilityName: "Adams County Jail", StateName: "Ohio", CountyName: "Adams"},
			Score:          model.NoMatchScore,
			Confidence:     model.ConfidenceNoMatch,
		},
	}
}

func TestWriteRows_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRows(&buf, "csv", matchedRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "facility_name,"))
	assert.Contains(t, lines[1], "Travis County Sheriff")
	assert.True(t, strings.HasSuffix(lines[2], "999,No Match Found"))
}

func TestWriteRows_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRows(&buf, "json", matchedRows()))

	var got []model.MatchedRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, model.ConfidenceHigh, got[0].Confidence)
	assert.Nil(t, got[1].Account)
}

func TestWriteRows_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRows(&buf, "yaml", matchedRows()))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Travis County Jail", got[0]["facility_name"])
	assert.Equal(t, "High Confidence", got[0]["match_confidence"])
	assert.Equal(t, 999, got[1]["match_score"])
}

func TestWriteRows_Unsupported(t *testing.T) {
	err := writeRows(&bytes.Buffer{}, "parquet", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: parquet")
}

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.json")
	var stdout bytes.Buffer
	require.NoError(t, writeOutput(&stdout, path, "json", matchedRows()))
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []model.MatchedRow
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got, 2)
}

func TestWriteOutput_Stdout(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, writeOutput(&stdout, "", "csv", matchedRows()))
	assert.Contains(t, stdout.String(), "Travis County Sheriff")
}

func TestWriteOutput_Errors(t *testing.T) {
	err := writeOutput(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing", "out.csv"), "csv", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match: create output")

	path := filepath.Join(t.TempDir(), "out.parquet")
	err = writeOutput(&bytes.Buffer{}, path, "parquet", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: parquet")
}

func TestImportThenMatch(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("FACILITY_WAREHOUSE_DRIVER", "sqlite")
	t.Setenv("FACILITY_WAREHOUSE_DATABASE_URL", filepath.Join(dir, "warehouse.db"))
	t.Setenv("FACILITY_MATCH_ORDERING", "score")
	t.Setenv("FACILITY_LOG_LEVEL", "error")

	facilities := "facility_name,statename,countyname,instpop,latitude,longitude\n" +
		"Travis County Jail,Texas,Travis,2300,30.27,-97.74\n" +
		"Adams County Jail,Ohio,Adams,,,\n"
	accounts := "id,name,billing_state\n" +
		"001A,Travis County Sheriff,Texas\n" +
		"001B,Travis Water District,Texas\n"
	require.NoError(t, os.WriteFile("facilities.csv", []byte(facilities), 0o600))
	require.NoError(t, os.WriteFile("accounts.csv", []byte(accounts), 0o600))

	rootCmd.SetArgs([]string{"import", "--csv", "facilities.csv", "--accounts", "accounts.csv"})
	require.NoError(t, rootCmd.Execute())

	out := filepath.Join(dir, "out.json")
	rootCmd.SetArgs([]string{"match", "--format", "json", "--output", out})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var rows []model.MatchedRow
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "Travis County Jail", rows[0].FacilityName)
	assert.Equal(t, model.ConfidenceHigh, rows[0].Confidence)
	require.NotNil(t, rows[0].Account)
	assert.Equal(t, "001A", rows[0].Account.ID)
	assert.Equal(t, "https://skydio.lightning.force.com/001A", rows[0].AccountLink)
	assert.Equal(t, model.ConfidenceNoMatch, rows[1].Confidence)
}
