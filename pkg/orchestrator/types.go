//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . SourceRepository,Project,ScriptRunner

package orchestrator

import (
	"context"

	"github.com/glorpus-work/nupack/pkg/hooks"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/project"
	"github.com/glorpus-work/nupack/pkg/repository"
	"github.com/glorpus-work/nupack/pkg/resolver"
	"github.com/glorpus-work/nupack/pkg/version"
)

// SourceRepository finds update candidates.
type SourceRepository interface {
	FindPackage(ctx context.Context, q repository.Query) (*model.PackageMetadata, error)
}

// Project is the reference store being updated.
type Project interface {
	InstalledReferences(ctx context.Context) ([]*model.PackageMetadata, error)
	UpdateReference(ctx context.Context, u project.ReferenceUpdate) (*project.UpdateResult, error)
	Save(ctx context.Context) error
}

// ScriptRunner runs the pre-update and post-update hooks.
type ScriptRunner interface {
	Execute(hookType hooks.HookType, ctx hooks.HookContext) error
}

// Orchestrator drives batch updates of a project's references.
type Orchestrator struct {
	Source  SourceRepository
	Project Project
	Scripts ScriptRunner // optional
	Hooks   Hooks        // Hooks for progress and event notifications
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // ordering|resolving|updating|skipped|failed|saving|done
	ID    string // package id
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Request selects what a Run updates.
type Request struct {
	Mode resolver.UpdateMode
	// IDs limits the run to these installed packages. Empty means all.
	IDs                []string
	AllowPrerelease    bool
	UpdateDependencies bool
	// Target gates candidates by platform. Nil accepts every candidate.
	Target *platform.Profile
	DryRun bool
}

// Outcome is what happened to one package.
type Outcome string

// Package outcomes.
const (
	Updated             Outcome = "updated"
	UpToDate            Outcome = "up-to-date"
	NoCompatibleVersion Outcome = "no-compatible-version"
	SourceUnavailable   Outcome = "source-unavailable"
	Failed              Outcome = "failed"
	Planned             Outcome = "planned"
)

// PackageResult records the outcome for one installed package.
type PackageResult struct {
	ID      string          `json:"id" yaml:"id"`
	Current version.Version `json:"current" yaml:"current"`
	// Target is the chosen candidate version; nil when none was found.
	Target  *version.Version `json:"target,omitempty" yaml:"target,omitempty"`
	Outcome Outcome          `json:"outcome" yaml:"outcome"`
	Err     error            `json:"-" yaml:"-"`
	Error   string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report collects per-package results in processing order.
type Report struct {
	Results []PackageResult `json:"results" yaml:"results"`
	Saved   bool            `json:"saved" yaml:"saved"`
}

// Failed reports whether any package failed outright. Packages that had no
// candidate or whose sources were unreachable are skipped, not failed.
func (r *Report) Failed() bool {
	return r.Count(Failed) > 0
}

// Count returns the number of results with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}
