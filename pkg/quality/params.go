package quality

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/sqlguard"
)

// paramKeys maps each check to the parameter names it consumes. Checks
// absent from the map take no parameters. ParseParams rejects keys outside
// the check's set; Keys lets callers pre-filter a shared parameter bag.
var paramKeys = map[dialect.CheckID][]string{
	dialect.CheckRange:           {"min", "max"},
	dialect.CheckLength:          {"max_len"},
	dialect.CheckLengthBetween:   {"min_len", "max_len"},
	dialect.CheckDatetime:        {"format"},
	dialect.CheckDateFormat:      {"format"},
	dialect.CheckAllowedValues:   {"values"},
	dialect.CheckCaseConsistency: {"case"},
	dialect.CheckCardinality:     {"max_categories"},
	dialect.CheckFutureDate:      {"future"},
	dialect.CheckDateRange:       {"min_date", "max_date"},
	dialect.CheckNoSpecialChars:  {"allowed_chars"},
	dialect.CheckRegexPattern:    {"pattern"},
	dialect.CheckZScoreOutlier:   {"threshold"},
	dialect.CheckPositiveValue:   {"strict"},
	dialect.CheckCorrelation:     {"other_column", "operator"},
	dialect.CheckValueEquality:   {"expected"},
}

// Keys returns the parameter names the check consumes, in documented order.
func Keys(id dialect.CheckID) []string {
	keys := paramKeys[id]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// ParseParams converts a raw string parameter map into the typed parameter
// payload the dialect builders consume. Every string value is screened for
// SQL injection fingerprints first; values travel to the backend as bind
// parameters regardless, so the screen is a second fence, not the only one.
func ParseParams(id dialect.CheckID, raw map[string]string) (dialect.CheckParams, error) {
	var p dialect.CheckParams

	if err := screenValues(raw); err != nil {
		return p, err
	}
	if err := rejectUnknownKeys(id, raw); err != nil {
		return p, err
	}

	var err error
	switch id {
	case dialect.CheckRange:
		if p.Min, err = requireFloat(raw, "min"); err != nil {
			return p, err
		}
		if p.Max, err = requireFloat(raw, "max"); err != nil {
			return p, err
		}
		if *p.Min > *p.Max {
			return p, fmt.Errorf("%w: min %v exceeds max %v", apperrors.ErrInvalidParams, *p.Min, *p.Max)
		}

	case dialect.CheckLength:
		if p.MaxLen, err = requireInt(raw, "max_len"); err != nil {
			return p, err
		}
		if *p.MaxLen < 0 {
			return p, fmt.Errorf("%w: max_len must not be negative", apperrors.ErrInvalidParams)
		}

	case dialect.CheckLengthBetween:
		if p.MinLen, err = requireInt(raw, "min_len"); err != nil {
			return p, err
		}
		if p.MaxLen, err = requireInt(raw, "max_len"); err != nil {
			return p, err
		}
		if *p.MinLen < 0 || *p.MinLen > *p.MaxLen {
			return p, fmt.Errorf("%w: need 0 <= min_len <= max_len, got %d..%d",
				apperrors.ErrInvalidParams, *p.MinLen, *p.MaxLen)
		}

	case dialect.CheckDatetime, dialect.CheckDateFormat:
		format, err := requireString(raw, "format")
		if err != nil {
			return p, err
		}
		if _, ok := dialect.FormatByName(format); !ok {
			return p, fmt.Errorf("%w: unknown format %q (known: %s)",
				apperrors.ErrInvalidParams, format, strings.Join(dialect.DateFormatNames(), ", "))
		}
		p.Format = format

	case dialect.CheckAllowedValues:
		csv, err := requireString(raw, "values")
		if err != nil {
			return p, err
		}
		for _, v := range strings.Split(csv, ",") {
			if v = strings.TrimSpace(v); v != "" {
				p.AllowedValues = append(p.AllowedValues, v)
			}
		}
		if len(p.AllowedValues) == 0 {
			return p, fmt.Errorf("%w: values must list at least one non-empty entry", apperrors.ErrInvalidParams)
		}

	case dialect.CheckCaseConsistency:
		caseType, err := requireString(raw, "case")
		if err != nil {
			return p, err
		}
		switch caseType {
		case "upper", "lower", "title":
			p.CaseType = caseType
		default:
			return p, fmt.Errorf("%w: case must be upper, lower, or title, got %q",
				apperrors.ErrInvalidParams, caseType)
		}

	case dialect.CheckCardinality:
		if p.MaxCategories, err = requireInt(raw, "max_categories"); err != nil {
			return p, err
		}
		if *p.MaxCategories < 1 {
			return p, fmt.Errorf("%w: max_categories must be at least 1", apperrors.ErrInvalidParams)
		}

	case dialect.CheckFutureDate:
		if p.Future, err = optionalBool(raw, "future", false); err != nil {
			return p, err
		}

	case dialect.CheckDateRange:
		if p.MinDate, err = requireDate(raw, "min_date"); err != nil {
			return p, err
		}
		if p.MaxDate, err = requireDate(raw, "max_date"); err != nil {
			return p, err
		}
		if p.MinDate > p.MaxDate {
			return p, fmt.Errorf("%w: min_date %s is after max_date %s",
				apperrors.ErrInvalidParams, p.MinDate, p.MaxDate)
		}

	case dialect.CheckNoSpecialChars:
		chars, err := requireString(raw, "allowed_chars")
		if err != nil {
			return p, err
		}
		// The value becomes the body of a character class on every
		// backend; brackets and backslashes would change the class
		// structure rather than name a character.
		if strings.ContainsAny(chars, `[]\`) {
			return p, fmt.Errorf("%w: allowed_chars must not contain brackets or backslashes", apperrors.ErrInvalidParams)
		}
		p.AllowedChars = chars

	case dialect.CheckRegexPattern:
		pattern, err := requireString(raw, "pattern")
		if err != nil {
			return p, err
		}
		// Compile as a coarse syntax gate. Backend regex flavors differ
		// from Go's, so this catches broken patterns, not flavor drift;
		// SQL Server treats the pattern as a LIKE pattern either way.
		if _, err := regexp.Compile(pattern); err != nil {
			return p, fmt.Errorf("%w: pattern does not compile: %v", apperrors.ErrInvalidParams, err)
		}
		p.Pattern = pattern

	case dialect.CheckZScoreOutlier:
		threshold, err := optionalFloat(raw, "threshold", 3)
		if err != nil {
			return p, err
		}
		if *threshold <= 0 {
			return p, fmt.Errorf("%w: threshold must be positive", apperrors.ErrInvalidParams)
		}
		p.Threshold = threshold

	case dialect.CheckPositiveValue:
		if p.Strict, err = optionalBool(raw, "strict", false); err != nil {
			return p, err
		}

	case dialect.CheckCorrelation:
		if p.OtherColumn, err = requireString(raw, "other_column"); err != nil {
			return p, err
		}
		op, err := requireString(raw, "operator")
		if err != nil {
			return p, err
		}
		switch strings.TrimSpace(op) {
		case "<", "<=", ">", ">=", "=", "==", "<>", "!=":
			p.Operator = strings.TrimSpace(op)
		default:
			return p, fmt.Errorf("%w: operator %q is not a comparison operator", apperrors.ErrInvalidParams, op)
		}

	case dialect.CheckValueEquality:
		expected, err := requireString(raw, "expected")
		if err != nil {
			return p, err
		}
		p.Expected = &expected
	}

	return p, nil
}

// screenValues runs every raw string value through the injection screen.
func screenValues(raw map[string]string) error {
	params := make(map[string]any, len(raw))
	for k, v := range raw {
		params[k] = v
	}
	for _, hit := range sqlguard.CheckValues(params) {
		return fmt.Errorf("%w: parameter %q matches SQL injection fingerprint %s",
			apperrors.ErrInvalidParams, hit.ParamName, hit.Fingerprint)
	}
	return nil
}

// rejectUnknownKeys fails on parameters the check does not consume, naming
// the keys it does.
func rejectUnknownKeys(id dialect.CheckID, raw map[string]string) error {
	allowed := make(map[string]bool)
	for _, k := range paramKeys[id] {
		allowed[k] = true
	}

	var unknown []string
	for k := range raw {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	if len(paramKeys[id]) == 0 {
		return fmt.Errorf("%w: %s takes no parameters, got %s",
			apperrors.ErrInvalidParams, id, strings.Join(unknown, ", "))
	}
	return fmt.Errorf("%w: unknown parameter(s) %s for %s (expected: %s)",
		apperrors.ErrInvalidParams, strings.Join(unknown, ", "), id,
		strings.Join(paramKeys[id], ", "))
}

func requireString(raw map[string]string, key string) (string, error) {
	v, ok := raw[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: missing required parameter %q", apperrors.ErrInvalidParams, key)
	}
	return v, nil
}

func requireFloat(raw map[string]string, key string) (*float64, error) {
	s, err := requireString(raw, key)
	if err != nil {
		return nil, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number, got %q", apperrors.ErrInvalidParams, key, s)
	}
	return &f, nil
}

func optionalFloat(raw map[string]string, key string, fallback float64) (*float64, error) {
	if v, ok := raw[key]; !ok || strings.TrimSpace(v) == "" {
		return &fallback, nil
	}
	return requireFloat(raw, key)
}

func requireInt(raw map[string]string, key string) (*int, error) {
	s, err := requireString(raw, key)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer, got %q", apperrors.ErrInvalidParams, key, s)
	}
	return &n, nil
}

func optionalBool(raw map[string]string, key string, fallback bool) (bool, error) {
	v, ok := raw[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false, got %q", apperrors.ErrInvalidParams, key, v)
	}
	return b, nil
}

// requireDate validates an ISO calendar date and returns it in the
// normalized YYYY-MM-DD spelling the dialect builders bind.
func requireDate(raw map[string]string, key string) (string, error) {
	s, err := requireString(raw, key)
	if err != nil {
		return "", err
	}
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %s must be an ISO date (YYYY-MM-DD), got %q",
			apperrors.ErrInvalidParams, key, s)
	}
	return d.Format("2006-01-02"), nil
}
