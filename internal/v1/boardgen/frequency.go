package boardgen

import "fmt"

// BuildFrequencies derives the target appearance count for every item from
// the request distribution. The result always has len(req.Items) entries in
// item order; it is validated against the slot balance by CheckFeasibility.
func BuildFrequencies(req *Request) ([]int, error) {
	n := len(req.Items)
	slots := req.NumBoards * req.BoardConfig.Rows * req.BoardConfig.Cols

	switch req.Distribution.Type {
	case DistUniform, "":
		return uniformFrequencies(n, slots), nil
	case DistGrouped:
		return groupedFrequencies(n, req.Distribution.Groups)
	case DistCustom:
		return customFrequencies(req.Items, req.Distribution.Frequencies)
	default:
		return nil, fmt.Errorf("unknown distribution type %q", req.Distribution.Type)
	}
}

// uniformFrequencies spreads slots as evenly as possible: every item gets
// floor(slots/n), and the first slots mod n items get one extra.
func uniformFrequencies(n, slots int) []int {
	base := slots / n
	rem := slots % n
	freqs := make([]int, n)
	for i := range freqs {
		freqs[i] = base
		if i < rem {
			freqs[i]++
		}
	}
	return freqs
}

// groupedFrequencies assigns one frequency per contiguous index range. Every
// item must be covered by exactly one group.
func groupedFrequencies(n int, groups []Group) ([]int, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("grouped distribution requires at least one group")
	}
	freqs := make([]int, n)
	covered := make([]bool, n)
	for gi, g := range groups {
		if g.StartIndex < 0 || g.EndIndex >= n || g.StartIndex > g.EndIndex {
			return nil, fmt.Errorf("group %d has invalid range [%d, %d] for %d items", gi, g.StartIndex, g.EndIndex, n)
		}
		for i := g.StartIndex; i <= g.EndIndex; i++ {
			if covered[i] {
				return nil, fmt.Errorf("item index %d is covered by more than one group", i)
			}
			covered[i] = true
			freqs[i] = g.Frequency
		}
	}
	for i, ok := range covered {
		if !ok {
			return nil, fmt.Errorf("item index %d is not covered by any group", i)
		}
	}
	return freqs, nil
}

// customFrequencies assigns a frequency per item ID. Every item must appear
// exactly once in the frequency list.
func customFrequencies(items []ItemRef, entries []ItemFrequency) ([]int, error) {
	byID := make(map[string]int, len(entries))
	for _, e := range entries {
		if _, dup := byID[e.ItemID]; dup {
			return nil, fmt.Errorf("duplicate frequency entry for item %q", e.ItemID)
		}
		byID[e.ItemID] = e.Frequency
	}
	freqs := make([]int, len(items))
	for i, item := range items {
		f, ok := byID[item.ID]
		if !ok {
			return nil, fmt.Errorf("no frequency given for item %q", item.ID)
		}
		freqs[i] = f
		delete(byID, item.ID)
	}
	for id := range byID {
		return nil, fmt.Errorf("frequency given for unknown item %q", id)
	}
	return freqs, nil
}
