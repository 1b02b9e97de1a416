package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/facility-match/internal/db"
	"github.com/sells-group/facility-match/internal/model"
)

// Postgres reads the warehouse over a pgx connection pool.
type Postgres struct {
	pool   db.Pool
	tables Tables
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

var _ Warehouse = (*Postgres)(nil)

// NewPostgres connects to the warehouse and verifies the connection.
func NewPostgres(ctx context.Context, connString string, tables Tables, poolCfg PoolConfig) (*Postgres, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	if poolCfg.MaxConns > 0 {
		pgxCfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		pgxCfg.MinConns = poolCfg.MinConns
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return NewPostgresFromPool(pool, tables), nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool db.Pool, tables Tables) *Postgres {
	return &Postgres{pool: pool, tables: tables}
}

func (p *Postgres) facilityTable() string { return db.Identifier(p.tables.Facilities).Sanitize() }
func (p *Postgres) accountTable() string  { return db.Identifier(p.tables.Accounts).Sanitize() }

// FetchFacilities returns every row of the facility registry.
func (p *Postgres) FetchFacilities(ctx context.Context) ([]model.FacilityRecord, error) {
	sql := fmt.Sprintf(`
SELECT COALESCE(facility_name, ''), COALESCE(notes, ''), COALESCE(statename, ''), COALESCE(countyname, ''),
       instpop::bigint, latitude::double precision, longitude::double precision,
       COALESCE(full_address, ''), COALESCE(so_operated_flag, false)
FROM %s
ORDER BY facility_name, statename, countyname, full_address`, p.facilityTable())

	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query facilities")
	}
	defer rows.Close()

	return scanFacilities(rows)
}

// FetchAccounts returns non-deleted accounts whose name contains nameFilter.
func (p *Postgres) FetchAccounts(ctx context.Context, nameFilter string) ([]model.AccountRecord, error) {
	sql := fmt.Sprintf(`
SELECT COALESCE(id, ''), COALESCE(name, ''), COALESCE(billing_state, ''), COALESCE(billing_city, ''),
       COALESCE(type, ''), COALESCE(is_deleted, false)
FROM %s
WHERE strpos(lower(name), lower($1)) > 0
  AND COALESCE(is_deleted, false) = false
ORDER BY name`, p.accountTable())

	rows, err := p.pool.Query(ctx, sql, nameFilter)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query accounts")
	}
	defer rows.Close()

	var accounts []model.AccountRecord
	for rows.Next() {
		var a model.AccountRecord
		if err := rows.Scan(&a.ID, &a.Name, &a.BillingState, &a.BillingCity, &a.Type, &a.IsDeleted); err != nil {
			return nil, eris.Wrap(err, "postgres: scan account")
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: account rows")
	}
	return accounts, nil
}

// scanFacilities scans facility rows, mapping SQL NULLs to absent values.
func scanFacilities(rows pgx.Rows) ([]model.FacilityRecord, error) {
	var out []model.FacilityRecord
	for rows.Next() {
		var (
			f        model.FacilityRecord
			pop      pgtype.Int8
			lat, lon pgtype.Float8
		)
		err := rows.Scan(
			&f.FacilityName, &f.Notes, &f.StateName, &f.CountyName,
			&pop, &lat, &lon, &f.FullAddress, &f.StateOperated,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan facility")
		}
		if pop.Valid {
			n := int(pop.Int64)
			f.Population = &n
		}
		f.Latitude = coordinate(lat.Float64, lat.Valid)
		f.Longitude = coordinate(lon.Float64, lon.Valid)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: facility rows")
	}
	return out, nil
}

// Migrate creates the source tables (and their schemas) if missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	var stmts []string
	for _, table := range []string{p.tables.Facilities, p.tables.Accounts} {
		if schema, _, ok := strings.Cut(table, "."); ok {
			stmts = append(stmts, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{schema}.Sanitize()))
		}
	}
	stmts = append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	facility_name    TEXT NOT NULL,
	notes            TEXT,
	statename        TEXT,
	countyname       TEXT,
	instpop          BIGINT,
	latitude         DOUBLE PRECISION,
	longitude        DOUBLE PRECISION,
	full_address     TEXT,
	so_operated_flag BOOLEAN NOT NULL DEFAULT false
)`, p.facilityTable()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	billing_state TEXT,
	billing_city  TEXT,
	type          TEXT,
	is_deleted    BOOLEAN NOT NULL DEFAULT false
)`, p.accountTable()),
	)

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "postgres: migrate")
		}
	}
	return nil
}

// ReplaceFacilities deletes the facility rows and COPYs records in, in one
// transaction.
func (p *Postgres) ReplaceFacilities(ctx context.Context, records []model.FacilityRecord) (int64, error) {
	rows := make([][]any, len(records))
	for i, f := range records {
		rows[i] = facilityRow(f)
	}
	return p.replace(ctx, p.tables.Facilities, facilityColumns, rows)
}

// ReplaceAccounts deletes the account rows and COPYs records in, in one
// transaction.
func (p *Postgres) ReplaceAccounts(ctx context.Context, records []model.AccountRecord) (int64, error) {
	rows := make([][]any, len(records))
	for i, a := range records {
		rows[i] = accountRow(a)
	}
	return p.replace(ctx, p.tables.Accounts, accountColumns, rows)
}

func (p *Postgres) replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin replace")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM "+db.Identifier(table).Sanitize()); err != nil {
		return 0, eris.Wrapf(err, "postgres: clear %s", table)
	}

	n, err := db.CopyInto(ctx, tx, table, columns, rows)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit replace")
	}
	return n, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
