package modules

import "sort"

// layers orders the modules so that every module comes after the ones it
// imports. Modules within a layer do not depend on each other. Imports of
// modules outside the set are ignored.
func layers(mods map[string]*Module) ([][]*Module, error) {
	indegree := make(map[string]int, len(mods))
	dependents := make(map[string][]string)
	for name := range mods {
		indegree[name] = 0
	}
	for name, m := range mods {
		for _, imp := range m.Imports {
			if _, ok := mods[imp]; !ok {
				continue
			}
			indegree[name]++
			dependents[imp] = append(dependents[imp], name)
		}
	}

	var ready []string
	for name, d := range indegree {
		if d == 0 {
			ready = append(ready, name)
		}
	}

	var out [][]*Module
	done := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		layer := make([]*Module, len(ready))
		var next []string
		for i, name := range ready {
			layer[i] = mods[name]
			for _, dep := range dependents[name] {
				indegree[dep]--
				if indegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		done += len(layer)
		out = append(out, layer)
		ready = next
	}

	if done < len(mods) {
		return nil, &ImportCycleError{Cycle: findCycle(mods, indegree)}
	}
	return out, nil
}

// findCycle walks the modules left with pending imports until one repeats.
func findCycle(mods map[string]*Module, indegree map[string]int) []string {
	var start string
	for name, d := range indegree {
		if d > 0 && (start == "" || name < start) {
			start = name
		}
	}

	index := make(map[string]int)
	var path []string
	for cur := start; ; {
		if i, seen := index[cur]; seen {
			return append(path[i:], cur)
		}
		index[cur] = len(path)
		path = append(path, cur)

		// Follow the first import that is itself stuck.
		for _, imp := range mods[cur].Imports {
			if indegree[imp] > 0 {
				cur = imp
				break
			}
		}
	}
}
