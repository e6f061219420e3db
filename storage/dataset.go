package storage

import (
	"fmt"
	"sort"

	"crime-analytics/models"
	"crime-analytics/utils"
)

// Dataset is the in-memory crime table. It is never mutated after
// construction, so concurrent readers need no locking.
type Dataset struct {
	records   []*models.CrimeRecord
	columns   []string
	columnSet map[string]struct{}
	states    []string
	districts []string
	byState   map[string][]string
}

// NewDataset indexes records. columns lists the numeric crime columns in header order.
func NewDataset(records []*models.CrimeRecord, columns []string) *Dataset {
	d := &Dataset{
		records:   records,
		columns:   append([]string(nil), columns...),
		columnSet: make(map[string]struct{}, len(columns)),
		byState:   make(map[string][]string),
	}
	for _, c := range columns {
		d.columnSet[c] = struct{}{}
	}

	states := utils.NewOrderedSet()
	districts := utils.NewOrderedSet()
	perState := make(map[string]*utils.OrderedSet)
	for _, r := range records {
		states.Add(r.State)
		districts.Add(r.District)
		set, ok := perState[r.State]
		if !ok {
			set = utils.NewOrderedSet()
			perState[r.State] = set
		}
		set.Add(r.District)
	}

	d.states = states.Items()
	sort.Strings(d.states)
	d.districts = districts.Items()
	sort.Strings(d.districts)
	for state, set := range perState {
		names := set.Items()
		sort.Strings(names)
		d.byState[state] = names
	}
	return d
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Records returns the rows in load order. Callers must not modify them.
func (d *Dataset) Records() []*models.CrimeRecord {
	return d.records
}

// Columns returns the numeric crime columns in header order
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// HasColumn reports whether name is a numeric crime column
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.columnSet[name]
	return ok
}

// CheckColumn returns ErrUnknownColumn for names that are not crime columns
func (d *Dataset) CheckColumn(name string) error {
	if !d.HasColumn(name) {
		return fmt.Errorf("%w: %q", models.ErrUnknownColumn, name)
	}
	return nil
}

// ResolveCrimeType substitutes DefaultCrimeType for unknown columns
func (d *Dataset) ResolveCrimeType(name string) string {
	if d.HasColumn(name) {
		return name
	}
	return models.DefaultCrimeType
}

// States returns the distinct states, sorted
func (d *Dataset) States() []string {
	return append([]string(nil), d.states...)
}

// Districts returns the distinct districts across all states, sorted
func (d *Dataset) Districts() []string {
	return append([]string(nil), d.districts...)
}

// DistrictsOf returns the sorted districts of one state, empty if unknown
func (d *Dataset) DistrictsOf(state string) []string {
	return append([]string{}, d.byState[state]...)
}

// Filter returns the records matching spec, in load order
func (d *Dataset) Filter(spec models.FilterSpec) []*models.CrimeRecord {
	out := make([]*models.CrimeRecord, 0)
	for _, r := range d.records {
		if spec.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
