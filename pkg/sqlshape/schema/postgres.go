package schema

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/kalidasa/sqlshape/internal/logutil"
	"github.com/kalidasa/sqlshape/pkg/sqlshape/hosttype"
)

// LoadOptions configures LoadFromPostgres.
type LoadOptions struct {
	// Schemas restricts introspection to the named schemas. Empty means
	// every non-system schema.
	Schemas []string
	// DefaultSchema becomes the returned catalog's DefaultSchema (spec §6);
	// defaults to "public" when empty.
	DefaultSchema string
	// MaxRetries bounds the exponential-backoff connection retry loop
	// (spec's ambient-infra note that a live catalog load is a network
	// call, not a pure function, and should tolerate a cold database).
	MaxRetries uint64
	Logger     *zap.Logger
}

// LoadFromPostgres introspects information_schema.columns and the primary
// key constraints over a live connection, building a DatabaseSchema.
//
// Grounded on the teacher's pg_lineage.NewCatalogFromDB (catalog.go): the
// same two queries and "schema.table -> ordered columns" accumulation,
// adapted from database/sql + lib/pq to pgx/v5, with a
// cenkalti/backoff/v4 retry wrapped around the initial connect (a fresh
// container or a database mid-failover both look like "try again
// shortly", not "give up").
func LoadFromPostgres(ctx context.Context, dsn string, opts LoadOptions) (*DatabaseSchema, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultSchema := opts.DefaultSchema
	if defaultSchema == "" {
		defaultSchema = "public"
	}

	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	var conn *pgx.Conn
	connect := func() error {
		c, err := pgx.ConnectConfig(ctx, cfg)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	var retryable backoff.BackOff = bo
	if opts.MaxRetries > 0 {
		retryable = backoff.WithMaxRetries(bo, opts.MaxRetries)
	}
	if err := backoff.Retry(connect, retryable); err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	defer conn.Close(ctx)

	logger.Debug("schema catalog: connected", logutil.Values(zap.String("default_schema", defaultSchema)))

	d := New(defaultSchema)

	colQuery := `
		SELECT table_schema, table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')`
	colArgs := []any{}
	if len(opts.Schemas) > 0 {
		colQuery += " AND table_schema = ANY($1)"
		colArgs = append(colArgs, opts.Schemas)
	}
	colQuery += " ORDER BY table_schema, table_name, ordinal_position"

	rows, err := conn.Query(ctx, colQuery, colArgs...)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	tables := map[[2]string]*Table{}
	var order [][2]string
	for rows.Next() {
		var schemaName, tableName, columnName, dataType string
		if err := rows.Scan(&schemaName, &tableName, &columnName, &dataType); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		key := [2]string{schemaName, tableName}
		t, ok := tables[key]
		if !ok {
			t = &Table{Name: tableName}
			tables[key] = t
			order = append(order, key)
		}
		t.Columns = append(t.Columns, Column{
			Name: columnName,
			Type: typeTag(dataType),
			Raw:  dataType,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	pkQuery := `
		SELECT kcu.table_schema, kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND kcu.table_schema NOT IN ('pg_catalog', 'information_schema')`
	pkArgs := []any{}
	if len(opts.Schemas) > 0 {
		pkQuery += " AND kcu.table_schema = ANY($1)"
		pkArgs = append(pkArgs, opts.Schemas)
	}
	pkQuery += " ORDER BY kcu.table_schema, kcu.table_name, kcu.ordinal_position"

	pkRows, err := conn.Query(ctx, pkQuery, pkArgs...)
	if err != nil {
		return nil, fmt.Errorf("query primary keys: %w", err)
	}
	for pkRows.Next() {
		var schemaName, tableName, columnName string
		if err := pkRows.Scan(&schemaName, &tableName, &columnName); err != nil {
			pkRows.Close()
			return nil, fmt.Errorf("scan primary key row: %w", err)
		}
		if t, ok := tables[[2]string{schemaName, tableName}]; ok {
			t.PrimaryKey = append(t.PrimaryKey, columnName)
		}
	}
	if err := pkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate primary key rows: %w", err)
	}

	for _, key := range order {
		d.AddTable(key[0], tables[key])
	}

	logger.Info("schema catalog: loaded",
		logutil.Values(zap.Int("table_count", len(order)), zap.String("catalog_id", d.ID().String())))
	return d, nil
}

// typeTag maps an information_schema.columns.data_type string (e.g.
// "character varying", "timestamp without time zone") to a hosttype.Tag,
// reusing the same cast-target table spec §4.2 defines for `::type` — the
// two concerns (a live column's declared type, a cast's target type) share
// one vocabulary of recognized PostgreSQL type names.
func typeTag(dataType string) hosttype.Tag {
	if tag := hosttype.FromCast(dataType); tag != hosttype.Unknown {
		return tag
	}
	// information_schema spells a few types more verbosely than a cast
	// would ("timestamp without time zone" vs "timestamp"); fold the
	// common ones down to what FromCast recognizes.
	folded := strings.TrimSuffix(dataType, " without time zone")
	folded = strings.TrimSuffix(folded, " with time zone")
	return hosttype.FromCast(folded)
}
