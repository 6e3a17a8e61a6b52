package quality

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/jsonutil"
)

// SuiteFile is a YAML document declaring check runs for one or more
// tables:
//
//	version: "1"
//	suites:
//	  - table: dq_people
//	    checks:
//	      - column: email
//	        check: must_contain_at
//	      - column: amount
//	        check: range_check
//	        params:
//	          min: 0
//	          max: 100
type SuiteFile struct {
	Version string  `yaml:"version,omitempty"`
	Suites  []Suite `yaml:"suites"`
}

// Suite binds a list of checks to one table. Schema is optional and falls
// back to the session's configured schema.
type Suite struct {
	Schema string       `yaml:"schema,omitempty"`
	Table  string       `yaml:"table"`
	Checks []SuiteCheck `yaml:"checks"`
}

// SuiteCheck is one (column, check) entry. Params values may be YAML
// scalars of any type; they are coerced to the string form the parameter
// parser takes.
type SuiteCheck struct {
	Column string         `yaml:"column"`
	Check  string         `yaml:"check"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Selections converts the suite's check list into executor selections.
func (s Suite) Selections() []Selection {
	out := make([]Selection, 0, len(s.Checks))
	for _, c := range s.Checks {
		sel := Selection{Column: c.Column, Check: dialect.CheckID(c.Check)}
		if len(c.Params) > 0 {
			sel.Params = make(map[string]string, len(c.Params))
			for k, v := range c.Params {
				sel.Params[k] = jsonutil.CoerceString(v)
			}
		}
		out = append(out, sel)
	}
	return out
}

// LoadSuiteFile reads and validates a suite document. Unknown YAML keys
// are rejected so a typoed field name fails loudly instead of silently
// dropping a check.
func LoadSuiteFile(path string) (*SuiteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite file: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite decodes and validates suite YAML.
func ParseSuite(data []byte) (*SuiteFile, error) {
	var file SuiteFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse suite file: %w", err)
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *SuiteFile) validate() error {
	if len(f.Suites) == 0 {
		return fmt.Errorf("%w: suite file declares no suites", apperrors.ErrInvalidParams)
	}
	for i, s := range f.Suites {
		if s.Table == "" {
			return fmt.Errorf("%w: suite %d has no table", apperrors.ErrInvalidParams, i+1)
		}
		if len(s.Checks) == 0 {
			return fmt.Errorf("%w: suite %d (%s) declares no checks", apperrors.ErrInvalidParams, i+1, s.Table)
		}
		for j, c := range s.Checks {
			if c.Column == "" {
				return fmt.Errorf("%w: check %d in suite %s has no column", apperrors.ErrInvalidParams, j+1, s.Table)
			}
			if c.Check == "" {
				return fmt.Errorf("%w: check %d in suite %s has no check id", apperrors.ErrInvalidParams, j+1, s.Table)
			}
			if _, ok := ByID(dialect.CheckID(c.Check)); !ok {
				return fmt.Errorf("%w: unknown check %q in suite %s", apperrors.ErrUnsupportedCheck, c.Check, s.Table)
			}
		}
	}
	return nil
}
