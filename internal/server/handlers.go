package server

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/facility-match/internal/dashboard"
	"github.com/sells-group/facility-match/internal/dataset"
	"github.com/sells-group/facility-match/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type facilitiesResponse struct {
	SnapshotID  string             `json:"snapshot_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Filter      dashboard.Filter   `json:"filter"`
	Summary     dashboard.Summary  `json:"summary"`
	Rows        []model.MatchedRow `json:"rows"`
}

type refreshResponse struct {
	SnapshotID  string    `json:"snapshot_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Facilities  int       `json:"facilities"`
	Accounts    int       `json:"accounts"`
	Rows        int       `json:"rows"`
}

// snapshot loads the current snapshot, writing a 502 on failure.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*dataset.Snapshot, bool) {
	snap, err := s.data.Snapshot(r.Context())
	if err != nil {
		zap.L().Error("server: load snapshot", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to load facility data")
		return nil, false
	}
	return snap, true
}

// filtered loads the snapshot and applies the request filter.
func (s *Server) filtered(w http.ResponseWriter, r *http.Request) (*dataset.Snapshot, dashboard.Filter, []model.MatchedRow, bool) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return nil, dashboard.Filter{}, nil, false
	}
	f := filterFrom(r)
	return snap, f, f.Apply(snap.Rows), true
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	snap, f, rows, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, facilitiesResponse{
		SnapshotID:  snap.ID,
		GeneratedAt: snap.GeneratedAt,
		Filter:      f,
		Summary:     dashboard.Summarize(rows),
		Rows:        rows,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	_, _, rows, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Summarize(rows))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Options(snap.Rows, r.URL.Query().Get("state")))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	_, _, rows, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dashboard.MapLayer(rows))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	_, _, rows, ok := s.filtered(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := dashboard.WriteCSV(&buf, rows); err != nil {
		zap.L().Error("server: export csv", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeAttachment(w, "text/csv", dashboard.ExportBaseName+".csv", buf.Bytes())
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	_, _, rows, ok := s.filtered(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := dashboard.WriteXLSX(&buf, rows); err != nil {
		zap.L().Error("server: export xlsx", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeAttachment(w, xlsxContentType, dashboard.ExportBaseName+".xlsx", buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.data.Refresh(r.Context())
	if err != nil {
		zap.L().Error("server: refresh snapshot", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to load facility data")
		return
	}
	zap.L().Info("snapshot refreshed", zap.String("snapshot_id", snap.ID))
	writeJSON(w, http.StatusOK, refreshResponse{
		SnapshotID:  snap.ID,
		GeneratedAt: snap.GeneratedAt,
		Facilities:  snap.Facilities,
		Accounts:    snap.Accounts,
		Rows:        len(snap.Rows),
	})
}
