package marketdata

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

// Catalog maps stock ids to display names. It is reference data loaded from a
// CSV listing into SQLite or PostgreSQL, chosen by DSN detection.
type Catalog struct {
	db     *sql.DB
	driver string
}

// CatalogOption configures a Catalog.
type CatalogOption func(*catalogOpts)

type catalogOpts struct {
	dsn     string
	csvPath string
}

// WithCatalogDSN sets the database DSN: a PostgreSQL URL or a SQLite file path.
func WithCatalogDSN(dsn string) CatalogOption {
	return func(o *catalogOpts) { o.dsn = dsn }
}

// WithCatalogCSV sets a CSV listing (stock_id,stock_name) loaded at startup.
func WithCatalogCSV(path string) CatalogOption {
	return func(o *catalogOpts) { o.csvPath = path }
}

// DetectDSNType reports "postgres" for PostgreSQL-style DSNs and "sqlite"
// for anything else (treated as a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewCatalog opens the catalog database, creates its schema, and loads the
// CSV listing when configured.
func NewCatalog(opts ...CatalogOption) (*Catalog, error) {
	var cfg catalogOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.dsn == "" {
		slog.Error("Catalog DSN not set")
		return nil, fmt.Errorf("catalog DSN not set")
	}

	driver := DetectDSNType(cfg.dsn)
	if driver == "sqlite" {
		dir := filepath.Dir(cfg.dsn)
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	driverName := "sqlite3"
	if driver == "postgres" {
		driverName = "postgres"
	}
	db, err := sql.Open(driverName, cfg.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}

	c := &Catalog{db: db, driver: driver}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Catalog opened", "driver", driver)

	if cfg.csvPath != "" {
		if err := c.LoadCSV(cfg.csvPath); err != nil {
			db.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) migrate() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS stock_names (
		stock_id TEXT PRIMARY KEY,
		stock_name TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return nil
}

// LoadCSV upserts rows from a stock_id,stock_name listing. A header row is
// detected and skipped.
func (c *Catalog) LoadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open catalog CSV: %w", err)
	}
	defer f.Close()

	upsert := `INSERT INTO stock_names (stock_id, stock_name) VALUES (?, ?)
		ON CONFLICT (stock_id) DO UPDATE SET stock_name = excluded.stock_name`
	if c.driver == "postgres" {
		upsert = `INSERT INTO stock_names (stock_id, stock_name) VALUES ($1, $2)
			ON CONFLICT (stock_id) DO UPDATE SET stock_name = excluded.stock_name`
	}

	reader := csv.NewReader(f)
	loaded := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read catalog CSV: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		id, name := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if id == "" || id == "stock_id" {
			continue
		}
		if _, err := c.db.Exec(upsert, id, name); err != nil {
			return fmt.Errorf("failed to upsert catalog row %q: %w", id, err)
		}
		loaded++
	}
	slog.Info("Catalog CSV loaded", "path", path, "rows", loaded)
	return nil
}

// LookupName returns the display name for a stock id, or the id itself when
// the catalog has no entry for it.
func (c *Catalog) LookupName(ctx context.Context, stockID string) string {
	query := `SELECT stock_name FROM stock_names WHERE stock_id = ?`
	if c.driver == "postgres" {
		query = `SELECT stock_name FROM stock_names WHERE stock_id = $1`
	}

	var name string
	err := c.db.QueryRowContext(ctx, query, stockID).Scan(&name)
	if err == sql.ErrNoRows {
		return stockID
	}
	if err != nil {
		slog.Warn("Catalog.LookupName: query failed", "error", err, "stock_id", stockID)
		return stockID
	}
	return name
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}
