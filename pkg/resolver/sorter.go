package resolver

import (
	"strings"

	"github.com/glorpus-work/nupack/pkg/model"
)

type frame struct {
	pkg  *model.PackageMetadata
	deps []*model.PackageMetadata
	next int
}

// OrderByDependency returns pkgs ordered so that every package appears after
// the packages it depends on. Dependencies on ids outside pkgs are ignored.
// Cycles are broken where the walk first re-enters a package, so the result
// always holds each input package exactly once. The order is deterministic
// for a given input order.
func OrderByDependency(pkgs []*model.PackageMetadata) []*model.PackageMetadata {
	byID := make(map[string][]*model.PackageMetadata, len(pkgs))
	for _, p := range pkgs {
		if p == nil {
			continue
		}
		id := strings.ToLower(p.Identity.ID)
		byID[id] = append(byID[id], p)
	}
	depsOf := func(p *model.PackageMetadata) []*model.PackageMetadata {
		var deps []*model.PackageMetadata
		for _, d := range p.Dependencies {
			deps = append(deps, byID[strings.ToLower(d.ID)]...)
		}
		return deps
	}

	order := make([]*model.PackageMetadata, 0, len(pkgs))
	// seen holds packages that are on the stack or already ordered.
	seen := make(map[string]bool, len(pkgs))
	for _, root := range pkgs {
		if root == nil || seen[root.Identity.Key()] {
			continue
		}
		seen[root.Identity.Key()] = true
		stack := []frame{{pkg: root, deps: depsOf(root)}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(top.deps) {
				dep := top.deps[top.next]
				top.next++
				if !seen[dep.Identity.Key()] {
					seen[dep.Identity.Key()] = true
					stack = append(stack, frame{pkg: dep, deps: depsOf(dep)})
				}
				continue
			}
			order = append(order, top.pkg)
			stack = stack[:len(stack)-1]
		}
	}
	return order
}
