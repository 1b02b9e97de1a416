package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/facility-match/internal/model"
)

// SQLite reads a local warehouse snapshot. Schema-qualified table names are
// flattened, so "salesforce.account" becomes "salesforce_account".
type SQLite struct {
	db     *sql.DB
	tables Tables
}

var _ Warehouse = (*SQLite)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, tables Tables) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db, tables: tables}, nil
}

func (s *SQLite) facilityTable() string { return quoteIdent(flatName(s.tables.Facilities)) }
func (s *SQLite) accountTable() string  { return quoteIdent(flatName(s.tables.Accounts)) }

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// FetchFacilities returns every row of the facility registry.
func (s *SQLite) FetchFacilities(ctx context.Context) ([]model.FacilityRecord, error) {
	q := fmt.Sprintf(`
SELECT COALESCE(facility_name, ''), COALESCE(notes, ''), COALESCE(statename, ''), COALESCE(countyname, ''),
       instpop, latitude, longitude, COALESCE(full_address, ''), COALESCE(so_operated_flag, 0)
FROM %s
ORDER BY rowid`, s.facilityTable())

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query facilities")
	}
	defer rows.Close()

	var out []model.FacilityRecord
	for rows.Next() {
		var (
			f        model.FacilityRecord
			pop      sql.NullInt64
			lat, lon sql.NullFloat64
		)
		err := rows.Scan(
			&f.FacilityName, &f.Notes, &f.StateName, &f.CountyName,
			&pop, &lat, &lon, &f.FullAddress, &f.StateOperated,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan facility")
		}
		if pop.Valid {
			n := int(pop.Int64)
			f.Population = &n
		}
		f.Latitude = coordinate(lat.Float64, lat.Valid)
		f.Longitude = coordinate(lon.Float64, lon.Valid)
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: facility rows")
}

// FetchAccounts returns non-deleted accounts whose name contains nameFilter.
// SQLite's lower() folds ASCII only.
func (s *SQLite) FetchAccounts(ctx context.Context, nameFilter string) ([]model.AccountRecord, error) {
	q := fmt.Sprintf(`
SELECT COALESCE(id, ''), COALESCE(name, ''), COALESCE(billing_state, ''), COALESCE(billing_city, ''),
       COALESCE(type, ''), COALESCE(is_deleted, 0)
FROM %s
WHERE instr(lower(name), lower(?)) > 0
  AND COALESCE(is_deleted, 0) = 0
ORDER BY name`, s.accountTable())

	rows, err := s.db.QueryContext(ctx, q, nameFilter)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query accounts")
	}
	defer rows.Close()

	var out []model.AccountRecord
	for rows.Next() {
		var a model.AccountRecord
		if err := rows.Scan(&a.ID, &a.Name, &a.BillingState, &a.BillingCity, &a.Type, &a.IsDeleted); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan account")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: account rows")
}

// Migrate creates the source tables if missing.
func (s *SQLite) Migrate(ctx context.Context) error {
	migration := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	facility_name    TEXT NOT NULL,
	notes            TEXT,
	statename        TEXT,
	countyname       TEXT,
	instpop          INTEGER,
	latitude         REAL,
	longitude        REAL,
	full_address     TEXT,
	so_operated_flag INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS %s (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	billing_state TEXT,
	billing_city  TEXT,
	type          TEXT,
	is_deleted    INTEGER NOT NULL DEFAULT 0
);
`, s.facilityTable(), s.accountTable())

	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "sqlite: migrate")
}

// ReplaceFacilities swaps the facility table contents in one transaction.
func (s *SQLite) ReplaceFacilities(ctx context.Context, records []model.FacilityRecord) (int64, error) {
	rows := make([][]any, len(records))
	for i, f := range records {
		rows[i] = facilityRow(f)
	}
	return s.replace(ctx, s.facilityTable(), facilityColumns, rows)
}

// ReplaceAccounts swaps the account table contents in one transaction.
func (s *SQLite) ReplaceAccounts(ctx context.Context, records []model.AccountRecord) (int64, error) {
	rows := make([][]any, len(records))
	for i, a := range records {
		rows[i] = accountRow(a)
	}
	return s.replace(ctx, s.accountTable(), accountColumns, rows)
}

func (s *SQLite) replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin replace")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear %s", table)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s", table)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit replace")
	}
	return int64(len(rows)), nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
