// Package align computes which documents of a bilingual corpus exist on both sides of a pair.
package align

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"text2phenotype.com/corpora/types"
)

// Collector gathers the join keys of one side while its archive is iterated.
type Collector struct {
	label string
	total int
	keys  map[string]int
}

func NewCollector(label string) *Collector {
	return &Collector{label: label, keys: map[string]int{}}
}

// Add records a member by file name and returns its join key.
func (c *Collector) Add(name string) string {
	key := types.JoinKey(name)
	c.total++
	c.keys[key]++
	return key
}

// Side freezes the collected keys.
func (c *Collector) Side() Side {
	keys := lo.Keys(c.keys)
	sort.Strings(keys)
	var dups []string
	for _, key := range keys {
		if c.keys[key] > 1 {
			dups = append(dups, key)
		}
	}
	return Side{Label: c.label, Total: c.total, Keys: keys, Duplicates: dups}
}

// Side is one member set of a pair: total member count and its sorted distinct join keys.
type Side struct {
	Label      string   `json:"label"`
	Total      int      `json:"total"`
	Keys       []string `json:"-"`
	Duplicates []string `json:"duplicates,omitempty"`
}

type Report struct {
	Name       string   `json:"name"`
	A          Side     `json:"a"`
	B          Side     `json:"b"`
	Matched    []string `json:"-"`
	ExclusiveA []string `json:"exclusive_a,omitempty"`
	ExclusiveB []string `json:"exclusive_b,omitempty"`
}

// Align intersects the key sets of a and b. Every key list in the report is sorted.
func Align(name string, a, b Side) Report {
	matched := lo.Intersect(a.Keys, b.Keys)
	onlyA, onlyB := lo.Difference(a.Keys, b.Keys)
	sort.Strings(matched)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return Report{Name: name, A: a, B: b, Matched: matched, ExclusiveA: onlyA, ExclusiveB: onlyB}
}

// Summary is the published form of a report: counts only.
type Summary struct {
	Name      string         `json:"name"`
	Totals    map[string]int `json:"totals"`
	Keys      map[string]int `json:"keys"`
	Matched   int            `json:"matched"`
	Exclusive map[string]int `json:"exclusive"`
}

func (r Report) Summary() Summary {
	return Summary{
		Name:      r.Name,
		Totals:    map[string]int{r.A.Label: r.A.Total, r.B.Label: r.B.Total},
		Keys:      map[string]int{r.A.Label: len(r.A.Keys), r.B.Label: len(r.B.Keys)},
		Matched:   len(r.Matched),
		Exclusive: map[string]int{r.A.Label: len(r.ExclusiveA), r.B.Label: len(r.ExclusiveB)},
	}
}

// Consistent checks matched + exclusive == distinct keys on both sides.
func (r Report) Consistent() error {
	if got := len(r.Matched) + len(r.ExclusiveA); got != len(r.A.Keys) {
		return fmt.Errorf("%s: matched %d + exclusive %d != %d %s keys",
			r.Name, len(r.Matched), len(r.ExclusiveA), len(r.A.Keys), r.A.Label)
	}
	if got := len(r.Matched) + len(r.ExclusiveB); got != len(r.B.Keys) {
		return fmt.Errorf("%s: matched %d + exclusive %d != %d %s keys",
			r.Name, len(r.Matched), len(r.ExclusiveB), len(r.B.Keys), r.B.Label)
	}
	return nil
}

// Check compares the report with expected counts. Side labels are looked up as languages;
// a nil expectation always passes.
func (r Report) Check(expected *types.Expectation) error {
	if expected == nil {
		return nil
	}
	if got := len(r.Matched); got != expected.Matched {
		return &CountMismatchError{Content: r.Name, Field: "matched", Expected: expected.Matched, Got: got}
	}
	sides := []struct {
		label     string
		exclusive []string
	}{
		{r.A.Label, r.ExclusiveA},
		{r.B.Label, r.ExclusiveB},
	}
	for _, side := range sides {
		want, ok := expected.Exclusive[types.Language(side.label)]
		if !ok {
			continue
		}
		if got := len(side.exclusive); got != want {
			return &CountMismatchError{Content: r.Name, Field: "exclusive " + side.label, Expected: want, Got: got}
		}
	}
	return nil
}
