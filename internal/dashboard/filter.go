package dashboard

import (
	"sort"

	"github.com/sells-group/inetdash/internal/model"
)

// TitleAll is the chart title for the unfiltered view.
const TitleAll = "Internet Usage (% of population) by Country Over Time"

// Title returns the chart title for a selection.
func Title(sel model.Selection) string {
	if sel.IsAll() {
		return TitleAll
	}
	return "Internet Usage (% of population) in " + sel.Entity + " Over Time"
}

// ColorRangeOf returns the min and max usage over records, ignoring missing
// values. The range is zero when no record has a usage value.
func ColorRangeOf(records []model.JoinedRecord) model.ColorRange {
	var (
		cr    model.ColorRange
		found bool
	)
	for _, r := range records {
		if r.Usage == nil {
			continue
		}
		u := *r.Usage
		if !found {
			cr = model.ColorRange{Min: u, Max: u}
			found = true
			continue
		}
		if u < cr.Min {
			cr.Min = u
		}
		if u > cr.Max {
			cr.Max = u
		}
	}
	return cr
}

// Apply filters joined by sel. The color range always covers the whole
// joined dataset so the legend does not move between selections.
func Apply(joined []model.JoinedRecord, sel model.Selection) model.ViewModel {
	return applyWithRange(joined, sel, ColorRangeOf(joined))
}

func applyWithRange(joined []model.JoinedRecord, sel model.Selection, cr model.ColorRange) model.ViewModel {
	vm := model.ViewModel{
		ColorRange: cr,
		Title:      Title(sel),
	}

	if sel.IsAll() {
		vm.Selection = model.AllEntities
		vm.Rows = joined
		if vm.Rows == nil {
			vm.Rows = []model.JoinedRecord{}
		}
		return vm
	}

	vm.Selection = sel.Entity
	vm.Rows = make([]model.JoinedRecord, 0)
	for _, r := range joined {
		if r.Entity == sel.Entity {
			vm.Rows = append(vm.Rows, r)
		}
	}
	vm.ZoomTarget = zoomTarget(vm.Rows)
	return vm
}

// zoomTarget returns the location of the first row that has both coordinates.
func zoomTarget(rows []model.JoinedRecord) *model.LatLon {
	for _, r := range rows {
		if p, ok := r.Location(); ok {
			return &p
		}
	}
	return nil
}

// Entities returns the selectable entity names: the All sentinel followed by
// the distinct non-empty entity names in byte order.
func Entities(records []model.UsageRecord) []string {
	seen := make(map[string]struct{}, len(records))
	names := make([]string, 0, len(records))
	for _, r := range records {
		if r.Entity == "" || r.Entity == model.AllEntities {
			continue
		}
		if _, ok := seen[r.Entity]; ok {
			continue
		}
		seen[r.Entity] = struct{}{}
		names = append(names, r.Entity)
	}
	sort.Strings(names)
	return append([]string{model.AllEntities}, names...)
}
