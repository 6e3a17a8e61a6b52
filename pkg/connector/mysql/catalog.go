package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
)

// ListObjects returns tables and views in the schema. On MySQL the schema
// is the database. An empty listing triggers a schema-existence probe.
func (c *Connector) ListObjects(ctx context.Context, schema string) ([]connector.SchemaObject, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT table_name,
		       CASE WHEN table_type = 'VIEW' THEN 'VIEW' ELSE 'TABLE' END AS object_type
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name`, schema)
	if err != nil {
		return nil, fmt.Errorf("%w: list objects: %v", apperrors.ErrQueryFailed, err)
	}
	defer rows.Close()

	var objects []connector.SchemaObject
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, fmt.Errorf("%w: scan object row: %v", apperrors.ErrQueryFailed, err)
		}
		objects = append(objects, connector.SchemaObject{Name: name, Kind: connector.ObjectKind(kind)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list objects: %v", apperrors.ErrQueryFailed, err)
	}

	if len(objects) == 0 {
		if err := c.probeSchema(ctx, schema); err != nil {
			return nil, err
		}
	}
	return objects, nil
}

func (c *Connector) probeSchema(ctx context.Context, schema string) error {
	var name string
	err := c.db.QueryRowContext(ctx,
		"SELECT schema_name FROM information_schema.schemata WHERE schema_name = ?",
		schema).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %q", apperrors.ErrSchemaNotFound, schema)
	}
	if err != nil {
		return fmt.Errorf("%w: probe schema: %v", apperrors.ErrQueryFailed, err)
	}
	return nil
}

// Columns returns the table's columns in ordinal order.
func (c *Connector) Columns(ctx context.Context, schema, table string) ([]connector.ColumnDescriptor, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable,
		       character_maximum_length, numeric_precision, numeric_scale
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("%w: list columns: %v", apperrors.ErrQueryFailed, err)
	}
	defer rows.Close()

	var columns []connector.ColumnDescriptor
	for rows.Next() {
		var (
			name, dataType, nullable string
			maxLen, precision, scale sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &nullable, &maxLen, &precision, &scale); err != nil {
			return nil, fmt.Errorf("%w: scan column row: %v", apperrors.ErrQueryFailed, err)
		}
		columns = append(columns, connector.ColumnDescriptor{
			Name:      name,
			DataType:  dataType,
			Nullable:  nullable == "YES",
			MaxLength: connector.Int64Ptr(maxLen),
			Precision: connector.Int64Ptr(precision),
			Scale:     connector.Int64Ptr(scale),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list columns: %v", apperrors.ErrQueryFailed, err)
	}
	return columns, nil
}

// PrimaryKeys returns primary key column names in key order. MySQL names
// every primary key constraint PRIMARY.
func (c *Connector) PrimaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("%w: primary keys: %v", apperrors.ErrQueryFailed, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan primary key row: %v", apperrors.ErrQueryFailed, err)
		}
		keys = append(keys, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: primary keys: %v", apperrors.ErrQueryFailed, err)
	}
	return keys, nil
}

// ForeignKeys maps constrained columns to their referenced table and column.
func (c *Connector) ForeignKeys(ctx context.Context, schema, table string) (map[string]connector.ForeignKeyRef, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ?
		  AND referenced_table_name IS NOT NULL`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("%w: foreign keys: %v", apperrors.ErrQueryFailed, err)
	}
	defer rows.Close()

	refs := make(map[string]connector.ForeignKeyRef)
	for rows.Next() {
		var column, refTable, refColumn string
		if err := rows.Scan(&column, &refTable, &refColumn); err != nil {
			return nil, fmt.Errorf("%w: scan foreign key row: %v", apperrors.ErrQueryFailed, err)
		}
		refs[column] = connector.ForeignKeyRef{Table: refTable, Column: refColumn}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: foreign keys: %v", apperrors.ErrQueryFailed, err)
	}
	return refs, nil
}
