package schedule

import (
	"errors"
	"fmt"
	"sort"

	"formflow/internal/form"
	"formflow/internal/rules"
)

// ErrCycle is returned when form dependencies are circular.
var ErrCycle = errors.New("form dependency cycle")

// Order returns forms in processing order: every form after the included
// forms it depends on, ties broken by precedence rank. Dependencies on forms
// outside the set are ignored.
func Order(reg *rules.Registry, forms []form.Type) ([]form.Type, error) {
	nodes := make([]form.Type, 0, len(forms))
	seen := make(map[form.Type]struct{}, len(forms))

	for _, t := range forms {
		if _, dup := seen[t]; dup {
			continue
		}

		if reg.Rank(t) < 0 {
			return nil, fmt.Errorf("form %s has no rule", t)
		}

		seen[t] = struct{}{}
		nodes = append(nodes, t)
	}

	// Index order is precedence order, so the smallest ready index wins ties.
	sort.Slice(nodes, func(i, j int) bool { return reg.Rank(nodes[i]) < reg.Rank(nodes[j]) })

	index := make(map[form.Type]int, len(nodes))
	for i, t := range nodes {
		index[t] = i
	}

	order, err := topoSort(len(nodes), func(i int) []int {
		fr, _ := reg.Rule(nodes[i])

		var deps []int

		for _, d := range fr.DependsOn {
			if j, ok := index[d]; ok {
				deps = append(deps, j)
			}
		}

		return deps
	})
	if errors.Is(err, ErrCycle) {
		return nil, fmt.Errorf("%w among %v", ErrCycle, unplaced(nodes, order))
	}

	if err != nil {
		return nil, err
	}

	out := make([]form.Type, len(order))
	for i, j := range order {
		out[i] = nodes[j]
	}

	return out, nil
}

func unplaced(nodes []form.Type, order []int) []form.Type {
	placed := make(map[int]bool, len(order))
	for _, i := range order {
		placed[i] = true
	}

	var rest []form.Type

	for i, t := range nodes {
		if !placed[i] {
			rest = append(rest, t)
		}
	}

	return rest
}

// topoSort returns node indices in dependency order. depsFn(i) yields the
// indices that must come before i. Among ready nodes the smallest index is
// taken first, so the result is deterministic. On a cycle the partial
// order is returned with ErrCycle.
func topoSort(n int, depsFn func(i int) []int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	indeg := make([]int, n)
	out := make([][]int, n)

	for i := range n {
		for _, d := range depsFn(i) {
			if d < 0 || d >= n {
				return nil, fmt.Errorf("dependency index out of range: %d depends on %d", i, d)
			}

			indeg[i]++
			out[d] = append(out[d], i)
		}
	}

	var ready []int

	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		order = append(order, i)
		for _, j := range out[i] {
			indeg[j]--
			if indeg[j] == 0 {
				k := sort.SearchInts(ready, j)
				ready = append(ready, 0)
				copy(ready[k+1:], ready[k:])
				ready[k] = j
			}
		}
	}

	if len(order) != n {
		return order, ErrCycle
	}

	return order, nil
}
