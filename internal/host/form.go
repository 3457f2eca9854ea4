package host

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var ErrMissingField = errors.New("missing form field")

// FormValues holds submitted form values keyed by field id.
type FormValues map[string]string

// String returns the value of a field that the form is expected to contain.
func (f FormValues) String(id string) (string, error) {
	v, ok := f[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, id)
	}
	return v, nil
}

// Toggled reports whether a toggle field is on. A toggle the form didn't
// include is off.
func (f FormValues) Toggled(id string) bool {
	return f[id] == "true"
}

// Optional returns a field's value, or "" if the form didn't include it.
func (f FormValues) Optional(id string) string {
	return f[id]
}

// ToggledIDs returns the numeric suffixes of every toggle field named
// prefix+<n> that is switched on, in ascending order.
func (f FormValues) ToggledIDs(prefix string) []uint64 {
	ids := []uint64{}
	for key, value := range f {
		suffix, ok := strings.CutPrefix(key, prefix)
		if !ok || value != "true" {
			continue
		}
		id, err := strconv.ParseUint(suffix, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
