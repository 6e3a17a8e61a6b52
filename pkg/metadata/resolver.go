// Package metadata layers a session-scoped catalog cache and name
// resolution on top of a Connector. Column lists and table analyses are
// memoized per (schema, table); user-typed table and column names are
// matched case-insensitively against catalog listings so that the
// catalog's own spelling is the only thing that ever reaches SQL text.
package metadata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
)

// maxSuggestionDistance is the largest edit distance still offered as a
// "did you mean" candidate.
const maxSuggestionDistance = 3

type tableKey struct {
	schema string
	table  string
}

// Resolver wraps a Connector with memoized catalog access. Entries live
// until Invalidate or Reset; there is no TTL.
type Resolver struct {
	conn   connector.Connector
	logger *zap.Logger

	mu       sync.Mutex
	objects  map[string][]connector.SchemaObject
	columns  map[tableKey][]connector.ColumnDescriptor
	analyses map[tableKey]*connector.TableAnalysis
}

// NewResolver builds a resolver around an open session. A nil logger is
// replaced with a no-op logger.
func NewResolver(conn connector.Connector, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		conn:     conn,
		logger:   logger,
		objects:  make(map[string][]connector.SchemaObject),
		columns:  make(map[tableKey][]connector.ColumnDescriptor),
		analyses: make(map[tableKey]*connector.TableAnalysis),
	}
}

// Objects returns the schema's table and view listing, fetched once per
// session.
func (r *Resolver) Objects(ctx context.Context, schema string) ([]connector.SchemaObject, error) {
	r.mu.Lock()
	if objs, ok := r.objects[schema]; ok {
		r.mu.Unlock()
		return objs, nil
	}
	r.mu.Unlock()

	objs, err := r.conn.ListObjects(ctx, schema)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.objects[schema] = objs
	r.mu.Unlock()
	return objs, nil
}

// Columns returns the table's column descriptors, fetched once per
// session.
func (r *Resolver) Columns(ctx context.Context, schema, table string) ([]connector.ColumnDescriptor, error) {
	key := tableKey{schema, table}
	r.mu.Lock()
	if cols, ok := r.columns[key]; ok {
		r.mu.Unlock()
		return cols, nil
	}
	r.mu.Unlock()

	cols, err := r.conn.Columns(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.columns[key] = cols
	r.mu.Unlock()
	return cols, nil
}

// Analysis returns the table's profile, fetched once per session.
func (r *Resolver) Analysis(ctx context.Context, schema, table string) (*connector.TableAnalysis, error) {
	key := tableKey{schema, table}
	r.mu.Lock()
	if a, ok := r.analyses[key]; ok {
		r.mu.Unlock()
		return a, nil
	}
	r.mu.Unlock()

	a, err := r.conn.TableAnalysis(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.analyses[key] = a
	r.mu.Unlock()
	return a, nil
}

// Invalidate drops the cached columns and analysis for one table. The
// schema's object listing stays; Reset clears that too.
func (r *Resolver) Invalidate(schema, table string) {
	key := tableKey{schema, table}
	r.mu.Lock()
	delete(r.columns, key)
	delete(r.analyses, key)
	r.mu.Unlock()
}

// Reset drops every cached entry.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.objects = make(map[string][]connector.SchemaObject)
	r.columns = make(map[tableKey][]connector.ColumnDescriptor)
	r.analyses = make(map[tableKey]*connector.TableAnalysis)
	r.mu.Unlock()
}

// ResolveTable matches a user-typed table name against the schema's
// catalog listing, exactly first and then case-insensitively, and returns
// the catalog's spelling. Unknown names produce an error naming the
// closest catalog entries.
func (r *Resolver) ResolveTable(ctx context.Context, schema, name string) (string, error) {
	objects, err := r.Objects(ctx, schema)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.Name == name {
			return obj.Name, nil
		}
		names = append(names, obj.Name)
	}
	for _, candidate := range names {
		if strings.EqualFold(candidate, name) {
			return candidate, nil
		}
	}
	return "", notFoundError("table", name, schema, names)
}

// ResolveColumn matches a user-typed column name against the table's
// catalog columns, exactly first and then case-insensitively, and returns
// the catalog's spelling.
func (r *Resolver) ResolveColumn(ctx context.Context, schema, table, name string) (string, error) {
	cols, err := r.Columns(ctx, schema, table)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(cols))
	for _, col := range cols {
		if col.Name == name {
			return col.Name, nil
		}
		names = append(names, col.Name)
	}
	for _, candidate := range names {
		if strings.EqualFold(candidate, name) {
			return candidate, nil
		}
	}
	return "", notFoundError("column", name, table, names)
}

func notFoundError(kind, name, in string, candidates []string) error {
	if near := Closest(name, candidates, 3); len(near) > 0 {
		return fmt.Errorf("%s %q not found in %s (did you mean %s?)",
			kind, name, in, strings.Join(near, ", "))
	}
	return fmt.Errorf("%s %q not found in %s", kind, name, in)
}

// Closest returns up to max candidate names within a small edit distance
// of input, nearest first. Comparison is case-insensitive; candidate
// casing is preserved in the result.
func Closest(input string, candidates []string, max int) []string {
	type scored struct {
		name string
		dist int
	}
	in := strings.ToLower(input)
	var near []scored
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(in, strings.ToLower(c))
		if d <= maxSuggestionDistance {
			near = append(near, scored{name: c, dist: d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })
	if len(near) > max {
		near = near[:max]
	}
	out := make([]string, len(near))
	for i, s := range near {
		out[i] = s.name
	}
	return out
}
