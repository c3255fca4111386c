package discovery

import (
	"github.com/samber/lo"
)

// TagLookup is the result of a best-effort tag fetch for one resource.
// Exactly one of Tags or Err is meaningful.
type TagLookup struct {
	Tags map[string]string
	Err  error
}

// tagsOK wraps a successful lookup.
func tagsOK(tags map[string]string) TagLookup { return TagLookup{Tags: tags} }

// tagsFailed wraps a failed lookup.
func tagsFailed(err error) TagLookup { return TagLookup{Err: err} }

// OrEmpty returns the tags, or an empty map when the lookup failed.
func (l TagLookup) OrEmpty() map[string]string {
	if l.Err != nil || l.Tags == nil {
		return map[string]string{}
	}
	return l.Tags
}

// tagPairs converts an SDK tag slice to a map. kv extracts key and value;
// entries with a nil key or value are skipped.
func tagPairs[T any](tags []T, kv func(T) (*string, *string)) map[string]string {
	return lo.FilterSliceToMap(tags, func(t T) (string, string, bool) {
		k, v := kv(t)
		if k == nil || v == nil {
			return "", "", false
		}
		return *k, *v, true
	})
}
