package oracle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
)

// ListObjects returns tables and views owned by the schema. Oracle stores
// unquoted identifiers upper-cased in the dictionary, so the schema
// argument is folded before matching OWNER. Table and column names are
// used exactly as the dictionary reports them from here on.
func (c *Connector) ListObjects(ctx context.Context, schema string) ([]connector.SchemaObject, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	owner := strings.ToUpper(schema)

	rows, err := db.QueryContext(ctx, `
		SELECT object_name, object_type
		FROM (
			SELECT table_name AS object_name, 'TABLE' AS object_type
			FROM all_tables
			WHERE owner = :1
			UNION ALL
			SELECT view_name, 'VIEW'
			FROM all_views
			WHERE owner = :2
		)
		ORDER BY object_name`, owner, owner)
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
		if err := c.probeSchema(ctx, owner); err != nil {
			return nil, err
		}
	}
	return objects, nil
}

func (c *Connector) probeSchema(ctx context.Context, owner string) error {
	var name string
	err := c.db.QueryRowContext(ctx,
		"SELECT username FROM all_users WHERE username = :1", owner).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %q", apperrors.ErrSchemaNotFound, owner)
	}
	if err != nil {
		return fmt.Errorf("%w: probe schema: %v", apperrors.ErrQueryFailed, err)
	}
	return nil
}

// Columns returns the table's columns in dictionary order. CHAR_LENGTH
// counts characters and is zero for non-character types, in which case
// MaxLength stays nil.
func (c *Connector) Columns(ctx context.Context, schema, table string) ([]connector.ColumnDescriptor, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	owner := strings.ToUpper(schema)

	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, nullable, char_length, data_precision, data_scale
		FROM all_tab_columns
		WHERE owner = :1 AND table_name = :2
		ORDER BY column_id`, owner, table)
	if err != nil {
		return nil, fmt.Errorf("%w: list columns: %v", apperrors.ErrQueryFailed, err)
	}
	defer rows.Close()

	var columns []connector.ColumnDescriptor
	for rows.Next() {
		var (
			name, dataType, nullable  string
			charLen, precision, scale sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &nullable, &charLen, &precision, &scale); err != nil {
			return nil, fmt.Errorf("%w: scan column row: %v", apperrors.ErrQueryFailed, err)
		}
		var maxLen *int64
		if charLen.Valid && charLen.Int64 > 0 {
			v := charLen.Int64
			maxLen = &v
		}
		columns = append(columns, connector.ColumnDescriptor{
			Name:      name,
			DataType:  dataType,
			Nullable:  nullable == "Y",
			MaxLength: maxLen,
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
	owner := strings.ToUpper(schema)

	rows, err := db.QueryContext(ctx, `
		SELECT cols.column_name
		FROM all_constraints cons
		JOIN all_cons_columns cols
		  ON cols.constraint_name = cons.constraint_name
		 AND cols.owner = cons.owner
		WHERE cons.constraint_type = 'P'
		  AND cons.owner = :1
		  AND cons.table_name = :2
		ORDER BY cols.position`, owner, table)
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
// column. Referencing and referenced key columns are matched by position
// within the constraint pair.
func (c *Connector) ForeignKeys(ctx context.Context, schema, table string) (map[string]connector.ForeignKeyRef, error) {
	db, err := c.ready()
	if err != nil {
		return nil, err
	}
	owner := strings.ToUpper(schema)

	rows, err := db.QueryContext(ctx, `
		SELECT cols.column_name, r_cols.table_name, r_cols.column_name
		FROM all_constraints cons
		JOIN all_cons_columns cols
		  ON cols.constraint_name = cons.constraint_name
		 AND cols.owner = cons.owner
		JOIN all_cons_columns r_cols
		  ON r_cols.constraint_name = cons.r_constraint_name
		 AND r_cols.owner = cons.r_owner
		 AND r_cols.position = cols.position
		WHERE cons.constraint_type = 'R'
		  AND cons.owner = :1
		  AND cons.table_name = :2`, owner, table)
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
