package dialect

// CheckID names a data-quality check. The identifiers are stable and appear
// verbatim in CLI arguments, suite files, and reports.
type CheckID string

const (
	CheckNull            CheckID = "null_check"
	CheckDistinct        CheckID = "distinct_check"
	CheckRange           CheckID = "range_check"
	CheckLength          CheckID = "length_check"
	CheckLengthBetween   CheckID = "length_between"
	CheckDatetime        CheckID = "datetime_check"
	CheckMustContainAt   CheckID = "must_contain_at"
	CheckNoNumbers       CheckID = "no_numbers"
	CheckNoLetters       CheckID = "no_letters"
	CheckAllowedValues   CheckID = "allowed_values"
	CheckEngNumericFmt   CheckID = "eng_numeric_format"
	CheckTrNumericFmt    CheckID = "tr_numeric_format"
	CheckCaseConsistency CheckID = "case_consistency"
	CheckCardinality     CheckID = "category_cardinality"
	CheckFutureDate      CheckID = "future_date"
	CheckDateRange       CheckID = "date_range"
	CheckNoSpecialChars  CheckID = "no_special_chars"
	CheckEmailFormat     CheckID = "email_format"
	CheckRegexPattern    CheckID = "regex_pattern"
	CheckZScoreOutlier   CheckID = "zscore_outlier"
	CheckIntegerType     CheckID = "integer_type"
	CheckPositiveValue   CheckID = "positive_value"
	CheckCorrelation     CheckID = "column_correlation"
	CheckValueEquality   CheckID = "value_equality"
	CheckTCKN            CheckID = "tckn_check"
	CheckDateFormat      CheckID = "date_format"
)

// CheckParams carries the parameter payload for a check. Which fields are
// consulted depends on the check; pkg/quality validates presence before a
// request reaches a builder.
type CheckParams struct {
	// Min and Max bound range_check.
	Min *float64
	Max *float64

	// MinLen and MaxLen bound length_between; length_check uses MaxLen only.
	MinLen *int
	MaxLen *int

	// AllowedValues lists the permitted values for allowed_values. Each
	// entry is passed as a bind parameter.
	AllowedValues []string

	// Pattern is the regex for regex_pattern (LIKE pattern on SQL Server).
	Pattern string

	// AllowedChars is the character-class body for no_special_chars, e.g.
	// "A-Za-z0-9 ". A value violates when it contains any character outside
	// the class.
	AllowedChars string

	// CaseType is upper, lower, or title for case_consistency.
	CaseType string

	// MaxCategories caps COUNT(DISTINCT) for category_cardinality.
	MaxCategories *int

	// MinDate and MaxDate bound date_range, ISO YYYY-MM-DD.
	MinDate string
	MaxDate string

	// Future flips future_date: false flags future dates, true flags
	// non-future dates.
	Future bool

	// Threshold is the z-score cutoff for zscore_outlier.
	Threshold *float64

	// Strict selects >0 over >=0 for positive_value.
	Strict bool

	// OtherColumn and Operator configure column_correlation.
	OtherColumn string
	Operator    string

	// Expected is the required value for value_equality.
	Expected *string

	// Format names a date format from the shared format table, used by
	// datetime_check and date_format.
	Format string
}

// CheckRequest binds one check to one column of one table. Schema, Table,
// Column and OtherColumn must already be validated against catalog listings
// before the request reaches a query builder.
type CheckRequest struct {
	Check  CheckID
	Schema string
	Table  string
	Column string
	Params CheckParams
}
