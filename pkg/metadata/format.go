package metadata

import (
	"fmt"

	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
)

// FormatType renders a column's declared type with its length or
// precision: varchar(255), decimal(10,2), timestamp. Precision without a
// positive scale is omitted, so integer types print without the storage
// width the catalogs report for them. SQL Server flags MAX types with
// length -1, rendered as varchar(max).
func FormatType(col connector.ColumnDescriptor) string {
	switch {
	case col.MaxLength != nil && *col.MaxLength == -1:
		return col.DataType + "(max)"
	case col.MaxLength != nil && *col.MaxLength > 0:
		return fmt.Sprintf("%s(%d)", col.DataType, *col.MaxLength)
	case col.Precision != nil && *col.Precision > 0 && col.Scale != nil && *col.Scale > 0:
		return fmt.Sprintf("%s(%d,%d)", col.DataType, *col.Precision, *col.Scale)
	default:
		return col.DataType
	}
}
