package modgraph

import (
	"sort"

	"github.com/pkg/errors"
)

// TopoSort runs a DFS post-order traversal: modules are visited
// alphabetically, each module's own dependency list traversed in
// alphabetical order, and the post-order emission sequence is the build
// order. A white/grey/black coloring detects cycles, which are fatal.
func TopoSort(modules map[string]*BuildModule) ([]*BuildModule, error) {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(modules))
	order := make([]*BuildModule, 0, len(modules))

	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	var visit func(name string, stack []string) error
	visit = func(name string, stack []string) error {
		switch color[name] {
		case black:
			return nil
		case grey:
			return errors.Errorf("module dependency cycle detected: %s -> %s", joinCycle(stack), name)
		}
		color[name] = grey
		stack = append(stack, name)

		bm, ok := modules[name]
		if !ok {
			color[name] = black
			return nil
		}
		deps := append([]string(nil), bm.Deps...)
		sort.Strings(deps)
		for _, dep := range deps {
			if _, isLocal := modules[dep]; !isLocal {
				continue
			}
			if err := visit(dep, stack); err != nil {
				return err
			}
		}
		color[name] = black
		order = append(order, bm)
		return nil
	}

	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func joinCycle(stack []string) string {
	out := ""
	for i, s := range stack {
		if i > 0 {
			out += " -> "
		}
		out += s
	}
	return out
}

// ComputeLevels implements a fixed-point level assignment: a module with
// zero local deps is level 0, a module whose every dep has a computed
// level gets max(dep.level)+1. order must already be acyclic (e.g. the
// result of TopoSort), which guarantees termination in at most len(order)
// passes.
func ComputeLevels(order []*BuildModule) []BuildBatch {
	byName := make(map[string]*BuildModule, len(order))
	for _, bm := range order {
		bm.Level = -1
		byName[bm.ModuleName] = bm
	}

	for {
		progressed := false
		for _, bm := range order {
			if bm.Level != -1 {
				continue
			}
			maxDep := -1
			ready := true
			for _, dep := range bm.Deps {
				dbm, isLocal := byName[dep]
				if !isLocal {
					continue
				}
				if dbm.Level == -1 {
					ready = false
					break
				}
				if dbm.Level > maxDep {
					maxDep = dbm.Level
				}
			}
			if !ready {
				continue
			}
			bm.Level = maxDep + 1
			progressed = true
		}
		if !progressed {
			break
		}
	}

	levels := make(map[int][]*BuildModule)
	maxLevel := -1
	for _, bm := range order {
		levels[bm.Level] = append(levels[bm.Level], bm)
		if bm.Level > maxLevel {
			maxLevel = bm.Level
		}
	}

	batches := make([]BuildBatch, 0, maxLevel+1)
	for l := 0; l <= maxLevel; l++ {
		members := levels[l]
		sort.Slice(members, func(i, j int) bool { return members[i].ModuleName < members[j].ModuleName })
		batches = append(batches, BuildBatch{Level: l, Members: members})
	}
	return batches
}
