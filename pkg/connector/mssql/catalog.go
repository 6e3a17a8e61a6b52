package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
)

// ListObjects returns tables and views in the schema. An empty listing
// triggers a schema-existence probe.
func (c *Connector) ListObjects(ctx context.Context, schema string) ([]connector.SchemaObject, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT TABLE_NAME,
		       CASE WHEN TABLE_TYPE = 'VIEW' THEN 'VIEW' ELSE 'TABLE' END AS object_type
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1
		  AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_NAME`, schema)
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
		"SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = @p1",
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
// CHARACTER_MAXIMUM_LENGTH counts characters rather than bytes and is -1
// for MAX types; nvarchar therefore reports its declared length, not twice
// it.
func (c *Connector) Columns(ctx context.Context, schema, table string) ([]connector.ColumnDescriptor, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE,
		       CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, NUMERIC_SCALE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`, schema, table)
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

// PrimaryKeys returns primary key column names in key order.
func (c *Connector) PrimaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		  ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		 AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		  AND tc.TABLE_SCHEMA = @p1
		  AND tc.TABLE_NAME = @p2
		ORDER BY kcu.ORDINAL_POSITION`, schema, table)
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

// ForeignKeys maps constrained columns to their referenced table and
// column. Referencing and referenced key columns are matched by ordinal
// position within the constraint.
func (c *Connector) ForeignKeys(ctx context.Context, schema, table string) (map[string]connector.ForeignKeyRef, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT fk_cols.COLUMN_NAME,
		       pk_cols.TABLE_NAME  AS referenced_table,
		       pk_cols.COLUMN_NAME AS referenced_column
		FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE fk_cols
		  ON fk_cols.CONSTRAINT_CATALOG = rc.CONSTRAINT_CATALOG
		 AND fk_cols.CONSTRAINT_SCHEMA = rc.CONSTRAINT_SCHEMA
		 AND fk_cols.CONSTRAINT_NAME = rc.CONSTRAINT_NAME
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE pk_cols
		  ON pk_cols.CONSTRAINT_CATALOG = rc.UNIQUE_CONSTRAINT_CATALOG
		 AND pk_cols.CONSTRAINT_SCHEMA = rc.UNIQUE_CONSTRAINT_SCHEMA
		 AND pk_cols.CONSTRAINT_NAME = rc.UNIQUE_CONSTRAINT_NAME
		 AND pk_cols.ORDINAL_POSITION = fk_cols.ORDINAL_POSITION
		WHERE fk_cols.TABLE_SCHEMA = @p1 AND fk_cols.TABLE_NAME = @p2`, schema, table)
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
