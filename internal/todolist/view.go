package todolist

import (
	"sort"

	"github.com/dori/todo/internal/model"
)

// Derive projects items through mode without modifying items.
//
// completed and notCompleted filter; latest and oldest sort by calendar date
// (day granularity) and keep insertion order for equal dates; all copies.
func Derive(items []model.Todo, mode model.SortMode) []model.Todo {
	out := make([]model.Todo, 0, len(items))
	switch mode {
	case model.SortCompleted, model.SortNotCompleted:
		want := mode == model.SortCompleted
		for _, t := range items {
			if t.Completed == want {
				out = append(out, t)
			}
		}
	case model.SortLatest:
		out = append(out, items...)
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date() > out[j].Date() })
	case model.SortOldest:
		out = append(out, items...)
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date() < out[j].Date() })
	default:
		out = append(out, items...)
	}
	return out
}
