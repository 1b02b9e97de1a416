package main

import (
	"context"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/facility-match/internal/dataset"
	"github.com/sells-group/facility-match/internal/match"
	"github.com/sells-group/facility-match/internal/resilience"
	"github.com/sells-group/facility-match/internal/warehouse"
	sfpkg "github.com/sells-group/facility-match/pkg/salesforce"
)

func initWarehouse(ctx context.Context) (warehouse.Warehouse, error) {
	tables := warehouse.Tables{
		Facilities: cfg.Warehouse.FacilityTable,
		Accounts:   cfg.Warehouse.AccountTable,
	}
	switch cfg.Warehouse.Driver {
	case "sqlite":
		dsn := cfg.Warehouse.DatabaseURL
		if dsn == "" {
			dsn = "facilities.db"
		}
		return warehouse.NewSQLite(dsn, tables)
	case "postgres":
		return warehouse.NewPostgres(ctx, cfg.Warehouse.DatabaseURL, tables, warehouse.PoolConfig{
			MaxConns: cfg.Warehouse.MaxConns,
			MinConns: cfg.Warehouse.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported warehouse driver: %s", cfg.Warehouse.Driver)
	}
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (FACILITY_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RateLimit)), nil
}

// initAccounts picks the account source named by accounts.source.
func initAccounts(wh warehouse.Warehouse) (dataset.AccountSource, error) {
	switch cfg.Accounts.Source {
	case "", "warehouse":
		return wh, nil
	case "salesforce":
		client, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		return dataset.SalesforceAccounts{Client: client}, nil
	default:
		return nil, eris.Errorf("unsupported accounts source: %s", cfg.Accounts.Source)
	}
}

func matchOptions() match.Options {
	return match.Options{
		Ordering: match.Ordering(cfg.Match.Ordering),
		Workers:  cfg.Match.Workers,
		Link:     sfpkg.RecordLinker(cfg.Salesforce.InstanceHost),
	}
}

// initService wires the warehouse and account source into a dataset service.
// The caller closes the returned warehouse.
func initService(ctx context.Context) (*dataset.Service, warehouse.Warehouse, error) {
	wh, err := initWarehouse(ctx)
	if err != nil {
		return nil, nil, err
	}

	accounts, err := initAccounts(wh)
	if err != nil {
		wh.Close()
		return nil, nil, err
	}

	svc := dataset.New(wh, accounts, dataset.Options{
		NameFilter: cfg.Accounts.NameFilter,
		TTL:        cfg.Cache.TTL(),
		Retry:      resilience.FromSettings(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMS),
		Match:      matchOptions(),
	})
	return svc, wh, nil
}
