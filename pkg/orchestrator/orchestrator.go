package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/hooks"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/project"
	"github.com/glorpus-work/nupack/pkg/repository"
	"github.com/glorpus-work/nupack/pkg/resolver"
	"github.com/glorpus-work/nupack/pkg/version"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Run updates the installed references selected by req, dependencies first.
// A failure on one package is recorded in the report and the run moves on.
// Unknown ids in req.IDs fail the run before anything is changed. The project
// is saved once at the end if at least one reference was updated.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	if o.Source == nil {
		return nil, fmt.Errorf("package source is not configured")
	}
	if o.Project == nil {
		return nil, fmt.Errorf("project is not configured")
	}

	installed, err := o.Project.InstalledReferences(ctx)
	if err != nil {
		return nil, err
	}

	selected, err := selectPackages(installed, req.IDs)
	if err != nil {
		return nil, err
	}

	emit(o.Hooks, Event{Phase: "ordering", Msg: fmt.Sprintf("%d packages", len(selected))})
	ordered := resolver.OrderByDependency(selected)

	report := &Report{Results: make([]PackageResult, 0, len(ordered))}
	for _, pkg := range ordered {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := o.updateOne(ctx, req, pkg)
		if err != nil {
			return report, err
		}
		if res.Err != nil {
			res.Error = res.Err.Error()
		}
		report.Results = append(report.Results, res)
	}

	if !req.DryRun && report.Count(Updated) > 0 {
		emit(o.Hooks, Event{Phase: "saving"})
		if err := o.Project.Save(ctx); err != nil {
			return report, err
		}
		report.Saved = true
	}

	emit(o.Hooks, Event{Phase: "done", Msg: fmt.Sprintf("%d updated, %d failed", report.Count(Updated), report.Count(Failed))})
	return report, nil
}

// selectPackages keeps the installed packages named in ids, or all of them
// when ids is empty.
func selectPackages(installed []*model.PackageMetadata, ids []string) ([]*model.PackageMetadata, error) {
	if len(ids) == 0 {
		return installed, nil
	}

	byID := make(map[string]*model.PackageMetadata, len(installed))
	for _, pkg := range installed {
		byID[strings.ToLower(pkg.Identity.ID)] = pkg
	}

	seen := make(map[string]bool, len(ids))
	var selected []*model.PackageMetadata
	var unknown []string
	for _, id := range ids {
		key := strings.ToLower(strings.TrimSpace(id))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		pkg, ok := byID[key]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		selected = append(selected, pkg)
	}
	if len(unknown) > 0 {
		return nil, &errutils.UnknownPackageIDsError{IDs: unknown}
	}
	return selected, nil
}

// updateOne resolves and applies the update of a single package. The returned
// error is non-nil only when the whole run must stop.
func (o *Orchestrator) updateOne(ctx context.Context, req Request, pkg *model.PackageMetadata) (PackageResult, error) {
	id := pkg.Identity.ID
	current := pkg.Identity.Version
	res := PackageResult{ID: id, Current: current}

	spec := resolver.ComputeUpgradeSpec(current, req.Mode)
	allowPre := resolver.AllowPrerelease(req.AllowPrerelease, current)

	emit(o.Hooks, Event{Phase: "resolving", ID: id, Msg: spec.String()})
	candidate, err := o.Source.FindPackage(ctx, repository.Query{
		ID:              id,
		Spec:            spec,
		AllowPrerelease: allowPre,
		Target:          req.Target,
	})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return res, ctx.Err()
		case errors.Is(err, errutils.ErrPackageNotFound):
			res.Outcome = NoCompatibleVersion
		case errors.Is(err, errutils.ErrSourceUnavailable):
			res.Outcome = SourceUnavailable
		default:
			res.Outcome = Failed
		}
		res.Err = err
		o.skip(res)
		return res, nil
	}

	target := candidate.Identity.Version
	res.Target = &target
	if !target.GreaterThan(current) {
		res.Outcome = UpToDate
		emit(o.Hooks, Event{Phase: "skipped", ID: id, Msg: "up to date"})
		return res, nil
	}

	if req.DryRun {
		res.Outcome = Planned
		emit(o.Hooks, Event{Phase: "updating", ID: id, Msg: fmt.Sprintf("would update %s -> %s", current, target)})
		return res, nil
	}

	hookCtx := hooks.HookContext{
		PackageID:      id,
		CurrentVersion: current.String(),
		TargetVersion:  target.String(),
		UpdateMode:     req.Mode.String(),
	}
	if err := o.runHook(hooks.PreUpdate, hookCtx); err != nil {
		res.Outcome = Failed
		res.Err = err
		o.skip(res)
		return res, nil
	}

	emit(o.Hooks, Event{Phase: "updating", ID: id, Msg: fmt.Sprintf("%s -> %s", current, target)})
	result, err := o.Project.UpdateReference(ctx, project.ReferenceUpdate{
		ID:                 id,
		Spec:               spec,
		Candidate:          candidate,
		UpdateDependencies: req.UpdateDependencies,
		AllowPrerelease:    allowPre,
	})
	if err != nil {
		res.Outcome = Failed
		res.Err = err
		o.skip(res)
		return res, nil
	}
	res.Outcome = Updated

	if len(result.MissingDependencies) > 0 {
		logger.Warn("Updated package has dependencies the project does not reference", logger.Fields{
			"package": id,
			"missing": dependencyList(result.MissingDependencies),
		})
	}

	if err := o.runHook(hooks.PostUpdate, hookCtx); err != nil {
		logger.Warn("Post-update hook failed", logger.Fields{"package": id, "error": err.Error()})
		res.Err = err
	}
	return res, nil
}

func (o *Orchestrator) runHook(t hooks.HookType, hc hooks.HookContext) error {
	if o.Scripts == nil {
		return nil
	}
	return o.Scripts.Execute(t, hc)
}

// skip reports a package that was not updated.
func (o *Orchestrator) skip(res PackageResult) {
	phase := "skipped"
	if res.Outcome == Failed {
		phase = "failed"
		logger.Warn("Package update failed", logger.Fields{"package": res.ID, "error": res.Err.Error()})
	} else {
		logger.Debug("Package skipped", logger.Fields{"package": res.ID, "outcome": string(res.Outcome), "error": res.Err.Error()})
	}
	emit(o.Hooks, Event{Phase: phase, ID: res.ID, Msg: res.Err.Error()})
}

func dependencyList(deps []model.Dependency) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.ID + " " + d.Spec.String()
	}
	return strings.Join(parts, ", ")
}

// Versions returns the target versions of the updated packages by id.
func (r *Report) Versions() map[string]version.Version {
	out := make(map[string]version.Version)
	for _, res := range r.Results {
		if res.Outcome == Updated && res.Target != nil {
			out[res.ID] = *res.Target
		}
	}
	return out
}
