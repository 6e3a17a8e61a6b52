package quality

import (
	"fmt"
	"sort"
	"strings"

	"github.com/veriqa-inc/veriqa-engine/pkg/apperrors"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"
	"github.com/veriqa-inc/veriqa-engine/pkg/metadata"
)

// NewSelections expands a shared parameter bag into one selection per
// check against the column. Each check takes only the bag keys it
// understands, so one bag can configure several checks at once; a key no
// selected check consumes is an error rather than a silent drop.
func NewSelections(column string, checks []string, bag map[string]string) ([]Selection, error) {
	if column == "" {
		return nil, fmt.Errorf("%w: column is required", apperrors.ErrInvalidParams)
	}
	if len(checks) == 0 {
		return nil, fmt.Errorf("%w: at least one check is required", apperrors.ErrInvalidParams)
	}

	consumed := make(map[string]bool, len(bag))
	selections := make([]Selection, 0, len(checks))
	for _, name := range checks {
		id := dialect.CheckID(name)
		if _, ok := ByID(id); !ok {
			return nil, unknownCheckError(name)
		}
		var params map[string]string
		for _, key := range Keys(id) {
			if v, ok := bag[key]; ok {
				if params == nil {
					params = make(map[string]string)
				}
				params[key] = v
				consumed[key] = true
			}
		}
		selections = append(selections, Selection{Column: column, Check: id, Params: params})
	}

	var stray []string
	for k := range bag {
		if !consumed[k] {
			stray = append(stray, k)
		}
	}
	if len(stray) > 0 {
		sort.Strings(stray)
		return nil, fmt.Errorf("%w: parameter(s) %s not used by any selected check",
			apperrors.ErrInvalidParams, strings.Join(stray, ", "))
	}
	return selections, nil
}

func unknownCheckError(name string) error {
	if near := metadata.Closest(name, IDs(), 3); len(near) > 0 {
		return fmt.Errorf("%w: unknown check %q (did you mean %s?)",
			apperrors.ErrUnsupportedCheck, name, strings.Join(near, ", "))
	}
	return fmt.Errorf("%w: unknown check %q", apperrors.ErrUnsupportedCheck, name)
}
