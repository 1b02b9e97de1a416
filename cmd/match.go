package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/facility-match/internal/dashboard"
	"github.com/sells-group/facility-match/internal/model"
)

var (
	matchState  string
	matchCounty string
	matchSearch string
	matchFormat string
	matchOutput string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run the facility/account match once and print the ranked rows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if matchFormat == "xlsx" && matchOutput == "" {
			return eris.New("xlsx output requires --output")
		}

		svc, wh, err := initService(ctx)
		if err != nil {
			return err
		}
		defer wh.Close()

		snap, err := svc.Snapshot(ctx)
		if err != nil {
			return eris.Wrap(err, "match")
		}

		rows := dashboard.Filter{State: matchState, County: matchCounty, Search: matchSearch}.Apply(snap.Rows)

		if err := writeOutput(cmd.OutOrStdout(), matchOutput, matchFormat, rows); err != nil {
			return err
		}

		s := dashboard.Summarize(rows)
		zap.L().Info("match complete",
			zap.String("snapshot_id", snap.ID),
			zap.Int("rows", s.Total),
			zap.Int("matched", s.Matched),
			zap.Int("high_confidence", s.High),
			zap.Int("no_match", s.NoMatch),
		)
		return nil
	},
}

// writeOutput writes rows to path, or to stdout when path is empty. The file
// is closed before returning so a failed flush is reported.
func writeOutput(stdout io.Writer, path, format string, rows []model.MatchedRow) error {
	if path == "" {
		return writeRows(stdout, format, rows)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "match: create output")
	}
	if err := writeRows(f, format, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "match: close output")
	}
	return nil
}

// writeRows encodes rows in the named format.
func writeRows(w io.Writer, format string, rows []model.MatchedRow) error {
	switch format {
	case "csv":
		return dashboard.WriteCSV(w, rows)
	case "xlsx":
		return dashboard.WriteXLSX(w, rows)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(rows), "match: encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return eris.Wrap(err, "match: encode yaml")
		}
		return eris.Wrap(enc.Close(), "match: encode yaml")
	default:
		return eris.Errorf("unsupported format: %s (want csv, json, yaml or xlsx)", format)
	}
}

func init() {
	matchCmd.Flags().StringVar(&matchState, "state", "", "only facilities in this state")
	matchCmd.Flags().StringVar(&matchCounty, "county", "", "only facilities in this county")
	matchCmd.Flags().StringVar(&matchSearch, "search", "", "facility name contains (case-insensitive)")
	matchCmd.Flags().StringVar(&matchFormat, "format", "csv", "output format: csv, json, yaml or xlsx")
	matchCmd.Flags().StringVarP(&matchOutput, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(matchCmd)
}
