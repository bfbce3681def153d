package analyzer

import (
	"sort"

	"github.com/funvibe/vellum/internal/ast"
)

// valueName is the name a constant or function is registered under, or ""
// for any other definition.
func valueName(def ast.Definition) string {
	switch d := def.(type) {
	case *ast.Function:
		return d.Name
	case *ast.ModuleConstant:
		return d.Name
	}
	return ""
}

// inferenceOrder groups the constants and functions of a module so that a
// group only refers to itself and to groups before it. A group holds
// mutually recursive definitions. Constants come first when nothing forces
// otherwise, then textual order decides.
func inferenceOrder(defs []ast.Definition) [][]ast.Definition {
	var nodes []ast.Definition
	for _, def := range defs {
		if _, ok := def.(*ast.ModuleConstant); ok {
			nodes = append(nodes, def)
		}
	}
	for _, def := range defs {
		if _, ok := def.(*ast.Function); ok {
			nodes = append(nodes, def)
		}
	}

	index := make(map[string]int, len(nodes))
	for i, def := range nodes {
		if _, dup := index[valueName(def)]; !dup {
			index[valueName(def)] = i
		}
	}

	edges := make([][]int, len(nodes))
	for i, def := range nodes {
		refs := make(map[string]bool)
		switch d := def.(type) {
		case *ast.Function:
			bound := make(map[string]bool, len(d.Arguments))
			for _, arg := range d.Arguments {
				bound[arg.Name] = true
			}
			collectRefs(d.Body, bound, refs)
		case *ast.ModuleConstant:
			collectRefs(d.Value, map[string]bool{}, refs)
		}
		for name := range refs {
			if j, ok := index[name]; ok {
				edges[i] = append(edges[i], j)
			}
		}
		sort.Ints(edges[i])
	}

	var groups [][]ast.Definition
	for _, scc := range stronglyConnected(len(nodes), edges) {
		sort.Ints(scc)
		group := make([]ast.Definition, len(scc))
		for k, n := range scc {
			group[k] = nodes[n]
		}
		groups = append(groups, group)
	}
	return groups
}

// stronglyConnected runs Tarjan's algorithm. Components come out after
// every component they have an edge to.
func stronglyConnected(n int, edges [][]int) [][]int {
	const unvisited = -1
	order := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range order {
		order[i] = unvisited
	}

	var (
		stack  []int
		next   int
		result [][]int
		visit  func(v int)
	)
	visit = func(v int) {
		order[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			switch {
			case order[w] == unvisited:
				visit(w)
				low[v] = min(low[v], low[w])
			case onStack[w]:
				low[v] = min(low[v], order[w])
			}
		}

		if low[v] != order[v] {
			return
		}
		var scc []int
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		result = append(result, scc)
	}

	for v := 0; v < n; v++ {
		if order[v] == unvisited {
			visit(v)
		}
	}
	return result
}

// collectRefs adds to refs the free names expr mentions. bound holds the
// local names in scope.
func collectRefs(expr ast.Expression, bound, refs map[string]bool) {
	switch e := expr.(type) {
	case nil:
	case *ast.Var:
		if !bound[e.Name] {
			refs[e.Name] = true
		}
	case *ast.Call:
		collectRefs(e.Fun, bound, refs)
		for _, arg := range e.Args {
			collectRefs(arg, bound, refs)
		}
	case *ast.Fn:
		inner := copyNames(bound)
		for _, arg := range e.Arguments {
			inner[arg.Name] = true
		}
		collectRefs(e.Body, inner, refs)
	case *ast.Assignment:
		collectRefs(e.Value, bound, refs)
	case *ast.Sequence:
		inner := copyNames(bound)
		for _, sub := range e.Expressions {
			collectRefs(sub, inner, refs)
			if a, ok := sub.(*ast.Assignment); ok {
				bindNames(a.Pattern, inner)
			}
		}
	case *ast.If:
		for _, b := range e.Branches {
			collectRefs(b.Condition, bound, refs)
			collectRefs(b.Body, bound, refs)
		}
		collectRefs(e.FinalElse, bound, refs)
	case *ast.BinOp:
		collectRefs(e.Left, bound, refs)
		collectRefs(e.Right, bound, refs)
	case *ast.UnOp:
		collectRefs(e.Value, bound, refs)
	case *ast.Tuple:
		for _, el := range e.Elements {
			collectRefs(el, bound, refs)
		}
	case *ast.Pair:
		collectRefs(e.Fst, bound, refs)
		collectRefs(e.Snd, bound, refs)
	case *ast.List:
		for _, el := range e.Elements {
			collectRefs(el, bound, refs)
		}
		collectRefs(e.Tail, bound, refs)
	case *ast.TupleIndex:
		collectRefs(e.Tuple, bound, refs)
	case *ast.FieldAccess:
		collectRefs(e.Container, bound, refs)
	case *ast.Todo:
		collectRefs(e.Label, bound, refs)
	case *ast.Fail:
		collectRefs(e.Reason, bound, refs)
	case *ast.Trace:
		collectRefs(e.Text, bound, refs)
		collectRefs(e.Then, bound, refs)
	}
}

func bindNames(p ast.Pattern, bound map[string]bool) {
	switch p := p.(type) {
	case *ast.PVar:
		bound[p.Name] = true
	case *ast.PTuple:
		for _, sub := range p.Elems {
			bindNames(sub, bound)
		}
	case *ast.PPair:
		bindNames(p.Fst, bound)
		bindNames(p.Snd, bound)
	}
}

func copyNames(names map[string]bool) map[string]bool {
	cp := make(map[string]bool, len(names))
	for k := range names {
		cp[k] = true
	}
	return cp
}
