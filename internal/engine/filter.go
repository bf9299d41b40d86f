package engine

// PriorityFilter is a conjunctive predicate over a credit's genre set plus
// an optional exact-decade match. Matching credits sort ahead of everything
// else in the ranked output.
type PriorityFilter struct {
	Genres []string `json:"genres"`
	Decade *int     `json:"decade,omitempty"`
}

// Empty reports whether no criteria are selected. An empty filter is inert:
// it matches nothing, not everything.
func (f PriorityFilter) Empty() bool {
	return len(f.Genres) == 0 && f.Decade == nil
}

// Matches reports whether a credit with the given genres and release year
// satisfies the filter. All selected genres must be present, and the year
// must fall in the selected decade when one is set.
func (f PriorityFilter) Matches(genres []string, year int) bool {
	if f.Empty() {
		return false
	}

	if len(f.Genres) > 0 {
		have := make(map[string]struct{}, len(genres))
		for _, g := range genres {
			have[g] = struct{}{}
		}
		for _, want := range f.Genres {
			if _, ok := have[want]; !ok {
				return false
			}
		}
	}

	if f.Decade != nil {
		if year/10*10 != *f.Decade {
			return false
		}
	}

	return true
}
