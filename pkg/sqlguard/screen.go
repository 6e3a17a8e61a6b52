package sqlguard

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a
// check-parameter value.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	ParamName   string // Name of the parameter that failed the check
	ParamValue  any    // The value that was checked
}

// CheckValue uses libinjection to detect SQL injection patterns in a
// parameter value supplied for a quality check (an allowed value, a format
// string, a regex pattern).
//
// Only string values are checked - numbers, booleans, and other types cannot
// contain SQL injection patterns and will return nil (no injection detected).
//
// Returns nil if no injection is detected, or an InjectionCheckResult with
// details about the detected pattern.
//
// Example:
//
//	// Safe value - no injection
//	result := CheckValue("min", "100")
//	// result == nil
//
//	// Injection attempt detected
//	result := CheckValue("expected", "'; DROP TABLE accounts--")
//	// result.IsSQLi == true
//	// result.Fingerprint == "s&1c" (or similar)
//	// result.ParamName == "expected"
func CheckValue(paramName string, value any) *InjectionCheckResult {
	// Only check string values - numbers/booleans can't contain injection
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: string(fingerprint),
			ParamName:   paramName,
			ParamValue:  value,
		}
	}

	return nil
}

// CheckValues validates all check-parameter values for SQL injection
// attempts.
//
// Returns a slice of InjectionCheckResult for each parameter that failed the
// injection check. Returns an empty slice if all parameters are clean.
func CheckValues(params map[string]any) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for name, value := range params {
		if result := CheckValue(name, value); result != nil {
			results = append(results, result)
		}
	}
	return results
}
