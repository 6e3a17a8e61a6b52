package dialect

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownCheck        = errors.New("unknown check")
	ErrMissingParam        = errors.New("missing required check parameter")
	ErrUnsupportedCase     = errors.New("unsupported case type")
	ErrUnsupportedOperator = errors.New("unsupported comparison operator")
	ErrUnknownDateFormat   = errors.New("unknown date format")
)

// Query is a ready-to-execute statement with bind arguments in placeholder
// order.
type Query struct {
	SQL  string
	Args []any
}

// emailRegex validates full address shape. SQL Server has no regex support,
// so it falls back to a LIKE approximation instead.
const emailRegex = `^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`

// CountQuery builds the statement whose single scalar result is the number
// of violating rows for the check. Identifiers in the request must already
// be catalog-validated; parameter values travel as bind arguments.
func CountQuery(k Kind, req CheckRequest) (*Query, error) {
	if req.Check == CheckCardinality {
		return cardinalityCountQuery(k, req)
	}
	args := &argList{}
	pred, err := buildPredicate(k, req, args)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s",
		QualifiedTable(k, req.Schema, req.Table), pred)
	return &Query{SQL: ConvertPlaceholders(k, sql), Args: args.args()}, nil
}

// SampleQuery builds the statement returning up to limit violating rows.
// Checks sample full rows so the caller sees each violation in context;
// category_cardinality returns per-value occurrence counts instead, since
// its violations are categories rather than rows.
func SampleQuery(k Kind, req CheckRequest, limit int) (*Query, error) {
	if req.Check == CheckCardinality {
		return cardinalitySampleQuery(k, req, limit)
	}
	args := &argList{}
	pred, err := buildPredicate(k, req, args)
	if err != nil {
		return nil, err
	}
	prefix, suffix := LimitClause(k, limit)
	sql := fmt.Sprintf("SELECT %s* FROM %s WHERE %s%s",
		prefix, QualifiedTable(k, req.Schema, req.Table), pred, suffix)
	return &Query{SQL: ConvertPlaceholders(k, sql), Args: args.args()}, nil
}

// buildPredicate renders the WHERE clause identifying violating rows. Each
// builder writes canonical $N placeholders exactly once per argument, in
// order, so the MySQL conversion to ? stays positional.
func buildPredicate(k Kind, req CheckRequest, args *argList) (string, error) {
	qc := QuoteIdentifier(k, req.Column)
	p := req.Params

	switch req.Check {
	case CheckNull:
		return qc + " IS NULL", nil

	case CheckDistinct:
		qt := QualifiedTable(k, req.Schema, req.Table)
		return fmt.Sprintf(
			"%s IS NOT NULL AND %s IN (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1)",
			qc, qc, qc, qt, qc), nil

	case CheckRange:
		if p.Min == nil || p.Max == nil {
			return "", fmt.Errorf("%w: range_check needs min and max", ErrMissingParam)
		}
		return fmt.Sprintf("%s IS NOT NULL AND (%s < %s OR %s > %s)",
			qc, qc, args.next(*p.Min), qc, args.next(*p.Max)), nil

	case CheckLength:
		if p.MaxLen == nil {
			return "", fmt.Errorf("%w: length_check needs max_len", ErrMissingParam)
		}
		return fmt.Sprintf("%s(%s) > %s", lengthFunc(k), qc, args.next(*p.MaxLen)), nil

	case CheckLengthBetween:
		if p.MinLen == nil || p.MaxLen == nil {
			return "", fmt.Errorf("%w: length_between needs min_len and max_len", ErrMissingParam)
		}
		fn := lengthFunc(k)
		return fmt.Sprintf("%s(%s) < %s OR %s(%s) > %s",
			fn, qc, args.next(*p.MinLen), fn, qc, args.next(*p.MaxLen)), nil

	case CheckDatetime:
		return datetimePredicate(k, qc, p, args)

	case CheckDateFormat:
		return dateFormatPredicate(k, qc, p, args)

	case CheckMustContainAt:
		return qc + " NOT LIKE '%@%'", nil

	case CheckNoNumbers:
		return presencePredicate(k, qc, "[0-9]"), nil

	case CheckNoLetters:
		return presencePredicate(k, qc, "[A-Za-z]"), nil

	case CheckAllowedValues:
		if len(p.AllowedValues) == 0 {
			return "", fmt.Errorf("%w: allowed_values needs at least one value", ErrMissingParam)
		}
		phs := make([]string, len(p.AllowedValues))
		for i, v := range p.AllowedValues {
			phs[i] = args.next(v)
		}
		return fmt.Sprintf("%s IS NOT NULL AND %s NOT IN (%s)",
			qc, qc, strings.Join(phs, ", ")), nil

	case CheckEngNumericFmt:
		return commaPredicate(k, qc, true), nil

	case CheckTrNumericFmt:
		return commaPredicate(k, qc, false), nil

	case CheckCaseConsistency:
		return casePredicate(k, qc, p.CaseType)

	case CheckFutureDate:
		if p.Future {
			return fmt.Sprintf("%s <= %s", qc, nowExpr(k)), nil
		}
		return fmt.Sprintf("%s > %s", qc, nowExpr(k)), nil

	case CheckDateRange:
		if p.MinDate == "" || p.MaxDate == "" {
			return "", fmt.Errorf("%w: date_range needs min_date and max_date", ErrMissingParam)
		}
		if k == Oracle {
			return fmt.Sprintf("%s < TO_DATE(%s, 'YYYY-MM-DD') OR %s > TO_DATE(%s, 'YYYY-MM-DD')",
				qc, args.next(p.MinDate), qc, args.next(p.MaxDate)), nil
		}
		return fmt.Sprintf("%s < CAST(%s AS DATE) OR %s > CAST(%s AS DATE)",
			qc, args.next(p.MinDate), qc, args.next(p.MaxDate)), nil

	case CheckNoSpecialChars:
		if p.AllowedChars == "" {
			return "", fmt.Errorf("%w: no_special_chars needs allowed_chars", ErrMissingParam)
		}
		if k == MSSQL {
			return fmt.Sprintf("%s LIKE %s", qc, args.next("%[^"+p.AllowedChars+"]%")), nil
		}
		return regexMatch(k, qc, args.next("[^"+p.AllowedChars+"]")), nil

	case CheckEmailFormat:
		guard := qc + " IS NOT NULL AND "
		switch k {
		case MSSQL:
			return guard + qc + " NOT LIKE '%@%.%'", nil
		case MySQL:
			return guard + qc + " NOT REGEXP '" + emailRegex + "'", nil
		case Oracle:
			return guard + "NOT REGEXP_LIKE(" + qc + ", '" + emailRegex + "')", nil
		default:
			return guard + qc + " !~ '" + emailRegex + "'", nil
		}

	case CheckRegexPattern:
		if p.Pattern == "" {
			return "", fmt.Errorf("%w: regex_pattern needs pattern", ErrMissingParam)
		}
		ph := args.next(p.Pattern)
		guard := qc + " IS NOT NULL AND "
		switch k {
		case MSSQL:
			// No regex support; the pattern is treated as a LIKE pattern.
			return fmt.Sprintf("%s%s NOT LIKE %s", guard, qc, ph), nil
		case MySQL:
			return fmt.Sprintf("%s%s NOT REGEXP %s", guard, qc, ph), nil
		case Oracle:
			return fmt.Sprintf("%sNOT REGEXP_LIKE(%s, %s)", guard, qc, ph), nil
		default:
			return fmt.Sprintf("%s%s !~ %s", guard, qc, ph), nil
		}

	case CheckZScoreOutlier:
		if p.Threshold == nil {
			return "", fmt.Errorf("%w: zscore_outlier needs threshold", ErrMissingParam)
		}
		qt := QualifiedTable(k, req.Schema, req.Table)
		return fmt.Sprintf(
			"%s IS NOT NULL AND ABS(%s - (SELECT AVG(%s) FROM %s)) > %s * (SELECT %s(%s) FROM %s)",
			qc, qc, qc, qt, args.next(*p.Threshold), stddevFunc(k), qc, qt), nil

	case CheckIntegerType:
		return fmt.Sprintf("%s <> FLOOR(%s)", qc, qc), nil

	case CheckPositiveValue:
		op := ">="
		if p.Strict {
			op = ">"
		}
		return fmt.Sprintf("%s IS NOT NULL AND NOT (%s %s 0)", qc, qc, op), nil

	case CheckCorrelation:
		if p.OtherColumn == "" || p.Operator == "" {
			return "", fmt.Errorf("%w: column_correlation needs other_column and operator", ErrMissingParam)
		}
		op, err := normalizeOperator(p.Operator)
		if err != nil {
			return "", err
		}
		qb := QuoteIdentifier(k, p.OtherColumn)
		return fmt.Sprintf("%s IS NOT NULL AND %s IS NOT NULL AND NOT (%s %s %s)",
			qc, qb, qc, op, qb), nil

	case CheckValueEquality:
		if p.Expected == nil {
			return "", fmt.Errorf("%w: value_equality needs expected value", ErrMissingParam)
		}
		return fmt.Sprintf("%s IS NOT NULL AND %s <> %s", qc, qc, args.next(*p.Expected)), nil

	case CheckTCKN:
		return tcknPredicate(k, qc), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCheck, req.Check)
	}
}

// datetimePredicate flags values that do not conform to the named date
// format. PostgreSQL and Oracle match the text rendering against the
// format's regex; MySQL and SQL Server use their safe parse functions,
// which return NULL instead of raising on bad input.
func datetimePredicate(k Kind, qc string, p CheckParams, args *argList) (string, error) {
	f, ok := FormatByName(p.Format)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDateFormat, p.Format)
	}
	switch k {
	case MySQL:
		return fmt.Sprintf("STR_TO_DATE(%s, %s) IS NULL AND %s IS NOT NULL",
			qc, args.next(f.MySQLFormat), qc), nil
	case MSSQL:
		return fmt.Sprintf("TRY_CONVERT(DATE, %s, %d) IS NULL AND %s IS NOT NULL",
			qc, f.MSSQLStyle, qc), nil
	case Oracle:
		return fmt.Sprintf("%s IS NOT NULL AND NOT REGEXP_LIKE(%s, %s)",
			qc, qc, args.next(f.Regex)), nil
	default:
		return fmt.Sprintf("%s IS NOT NULL AND CAST(%s AS TEXT) !~ %s",
			qc, qc, args.next(f.Regex)), nil
	}
}

// dateFormatPredicate flags values whose shape does not match the named
// format. Unlike datetime_check it never attempts a parse, so 31.02.2024
// passes shape matching; pair it with datetime_check to catch impossible
// dates on backends with safe parsing.
func dateFormatPredicate(k Kind, qc string, p CheckParams, args *argList) (string, error) {
	f, ok := FormatByName(p.Format)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDateFormat, p.Format)
	}
	guard := qc + " IS NOT NULL AND "
	switch k {
	case MSSQL:
		return fmt.Sprintf("%s%s NOT LIKE %s", guard, qc, args.next(f.LikePattern)), nil
	case MySQL:
		return fmt.Sprintf("%s%s NOT REGEXP %s", guard, qc, args.next(f.Regex)), nil
	case Oracle:
		return fmt.Sprintf("%sNOT REGEXP_LIKE(%s, %s)", guard, qc, args.next(f.Regex)), nil
	default:
		return fmt.Sprintf("%s%s !~ %s", guard, qc, args.next(f.Regex)), nil
	}
}

// presencePredicate is true when the text rendering contains any character
// from the class. Serves no_numbers and no_letters, where presence is the
// violation.
func presencePredicate(k Kind, qc, class string) string {
	switch k {
	case MSSQL:
		return qc + " LIKE '%" + class + "%'"
	case MySQL:
		return qc + " REGEXP '" + class + "'"
	case Oracle:
		return "REGEXP_LIKE(" + qc + ", '" + class + "')"
	default:
		return "CAST(" + qc + " AS TEXT) ~ '" + class + "'"
	}
}

// commaPredicate inspects the text rendering of a numeric column for a
// decimal comma. ENG format treats a comma as the violation; TR format
// treats its absence as the violation. A locale heuristic, not a parser.
func commaPredicate(k Kind, qc string, commaIsViolation bool) string {
	guard := qc + " IS NOT NULL AND "
	if k == Oracle {
		cmp := "> 0"
		if !commaIsViolation {
			cmp = "= 0"
		}
		return guard + "INSTR(TO_CHAR(" + qc + "), ',') " + cmp
	}

	var rendered string
	switch k {
	case MSSQL:
		rendered = "CONVERT(VARCHAR, " + qc + ")"
	case MySQL:
		rendered = qc
	default:
		rendered = "CAST(" + qc + " AS TEXT)"
	}
	like := " LIKE '%,%'"
	if !commaIsViolation {
		like = " NOT LIKE '%,%'"
	}
	return guard + rendered + like
}

// casePredicate flags values that change under the case function. SQL
// Server needs a case-sensitive collation for the comparison and MySQL
// needs BINARY on both sides; their defaults compare case-insensitively
// and would never flag anything.
func casePredicate(k Kind, qc, caseType string) (string, error) {
	var fn string
	switch caseType {
	case "upper":
		fn = "UPPER"
	case "lower":
		fn = "LOWER"
	case "title":
		if k == MySQL || k == MSSQL {
			return "", fmt.Errorf("%w: title case needs INITCAP, which %s lacks", ErrUnsupportedCase, k)
		}
		fn = "INITCAP"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCase, caseType)
	}

	switch k {
	case MSSQL:
		return fmt.Sprintf("%s IS NOT NULL AND %s COLLATE Latin1_General_CS_AS <> %s(%s)",
			qc, qc, fn, qc), nil
	case MySQL:
		return fmt.Sprintf("%s IS NOT NULL AND BINARY %s <> BINARY %s(%s)",
			qc, qc, fn, qc), nil
	default:
		return fmt.Sprintf("%s IS NOT NULL AND %s <> %s(%s)", qc, qc, fn, qc), nil
	}
}

// regexMatch renders a positive regex match for the three regex-capable
// dialects. The pattern expression is a placeholder or quoted literal the
// caller already produced. SQL Server callers branch before reaching here.
func regexMatch(k Kind, expr, pattern string) string {
	switch k {
	case MySQL:
		return fmt.Sprintf("%s REGEXP %s", expr, pattern)
	case Oracle:
		return fmt.Sprintf("REGEXP_LIKE(%s, %s)", expr, pattern)
	default:
		return fmt.Sprintf("%s ~ %s", expr, pattern)
	}
}

func nowExpr(k Kind) string {
	switch k {
	case MSSQL:
		return "GETDATE()"
	case MySQL:
		return "CURDATE()"
	case Oracle:
		return "SYSDATE"
	default:
		return "CURRENT_DATE"
	}
}

func stddevFunc(k Kind) string {
	if k == MSSQL {
		return "STDEV"
	}
	return "STDDEV"
}

func normalizeOperator(op string) (string, error) {
	switch strings.TrimSpace(op) {
	case "<", "<=", ">", ">=":
		return strings.TrimSpace(op), nil
	case "=", "==":
		return "=", nil
	case "<>", "!=":
		return "<>", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
}

// cardinalityCountQuery reports by how many categories the column exceeds
// the threshold, or zero. The threshold is bound twice because each
// placeholder must map to exactly one positional argument.
func cardinalityCountQuery(k Kind, req CheckRequest) (*Query, error) {
	if req.Params.MaxCategories == nil {
		return nil, fmt.Errorf("%w: category_cardinality needs max_categories", ErrMissingParam)
	}
	qt := QualifiedTable(k, req.Schema, req.Table)
	qc := QuoteIdentifier(k, req.Column)
	args := &argList{}
	limit := args.next(*req.Params.MaxCategories)
	excess := args.next(*req.Params.MaxCategories)
	sql := fmt.Sprintf(
		"SELECT CASE WHEN COUNT(DISTINCT %s) > %s THEN COUNT(DISTINCT %s) - %s ELSE 0 END FROM %s",
		qc, limit, qc, excess, qt)
	return &Query{SQL: ConvertPlaceholders(k, sql), Args: args.args()}, nil
}

// cardinalitySampleQuery lists distinct values with their occurrence
// counts, most frequent first, so the caller can see which categories blew
// the threshold.
func cardinalitySampleQuery(k Kind, req CheckRequest, limit int) (*Query, error) {
	qt := QualifiedTable(k, req.Schema, req.Table)
	qc := QuoteIdentifier(k, req.Column)
	prefix, suffix := LimitClause(k, limit)
	sql := fmt.Sprintf(
		"SELECT %s%s, COUNT(*) AS occurrences FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY COUNT(*) DESC%s",
		prefix, qc, qt, qc, qc, suffix)
	return &Query{SQL: sql}, nil
}

// tcknPredicate flags values failing the Turkish national identity number
// algorithm: 11 digits, no leading zero, tenth digit equal to
// ((d1+d3+d5+d7+d9)*7 - (d2+d4+d6+d8)) mod 10, eleventh digit equal to the
// sum of the first ten mod 10. The arithmetic runs entirely in SQL; digits
// are cast signed everywhere so a negative intermediate cannot overflow.
func tcknPredicate(k Kind, qc string) string {
	digit := func(i int) string {
		switch k {
		case MySQL:
			return fmt.Sprintf("CAST(SUBSTRING(%s,%d,1) AS SIGNED)", qc, i)
		case MSSQL:
			return fmt.Sprintf("CAST(SUBSTRING(%s,%d,1) AS int)", qc, i)
		case Oracle:
			return fmt.Sprintf("TO_NUMBER(SUBSTR(%s,%d,1))", qc, i)
		default:
			return fmt.Sprintf("CAST(SUBSTRING(%s,%d,1) AS integer)", qc, i)
		}
	}
	mod10 := func(expr string) string {
		if k == Oracle {
			return fmt.Sprintf("MOD(%s, 10)", expr)
		}
		return fmt.Sprintf("(%s) %% 10", expr)
	}
	sum := func(positions ...int) string {
		parts := make([]string, len(positions))
		for i, pos := range positions {
			parts[i] = digit(pos)
		}
		return strings.Join(parts, " + ")
	}

	var shape string
	switch k {
	case MySQL:
		shape = fmt.Sprintf("CHAR_LENGTH(%s) = 11 AND %s REGEXP '^[0-9]+$' AND SUBSTRING(%s, 1, 1) <> '0'", qc, qc, qc)
	case MSSQL:
		shape = fmt.Sprintf("LEN(%s) = 11 AND %s NOT LIKE '0%%' AND %s LIKE '%s'",
			qc, qc, qc, strings.Repeat("[0-9]", 11))
	case Oracle:
		shape = fmt.Sprintf("LENGTH(%s) = 11 AND REGEXP_LIKE(%s, '^[0-9]+$') AND SUBSTR(%s, 1, 1) <> '0'", qc, qc, qc)
	default:
		shape = fmt.Sprintf("LENGTH(%s) = 11 AND %s ~ '^[0-9]+$' AND SUBSTRING(%s, 1, 1) <> '0'", qc, qc, qc)
	}

	tenth := fmt.Sprintf("%s = %s",
		mod10(fmt.Sprintf("(%s) * 7 - (%s)", sum(1, 3, 5, 7, 9), sum(2, 4, 6, 8))),
		digit(10))
	eleventh := fmt.Sprintf("%s = %s",
		mod10(sum(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)),
		digit(11))

	return fmt.Sprintf("%s IS NOT NULL AND NOT (%s AND %s AND %s)", qc, shape, tenth, eleventh)
}
