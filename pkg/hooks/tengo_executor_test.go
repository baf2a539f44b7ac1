package hooks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/hooks"
)

func TestTengoExecutor(t *testing.T) {
	executor := hooks.NewTengoExecutor()
	ctx := hooks.HookContext{
		PackageID:      "Contoso.Core",
		CurrentVersion: "1.0",
		TargetVersion:  "1.1",
		UpdateMode:     "safe",
		Vars: map[string]interface{}{
			"customVar": "customValue",
		},
	}

	t.Run("Context variables are accessible", func(t *testing.T) {
		executor.AddScript(hooks.PreUpdate, `
			strings := import("strings")
			if packageId != "Contoso.Core" || currentVersion != "1.0" || targetVersion != "1.1" {
				err = "unexpected context"
			}
			if updateMode != "safe" || !strings.has_prefix(customVar, "custom") {
				err = "unexpected vars"
			}
		`)
		assert.NoError(t, executor.Execute(hooks.PreUpdate, ctx))
	})

	t.Run("Script aborts with a string", func(t *testing.T) {
		executor.AddScript(hooks.PreUpdate, `
			if targetVersion == "1.1" {
				err = "1.1 is blocked"
			}
		`)
		err := executor.Execute(hooks.PreUpdate, ctx)
		assert.ErrorIs(t, err, errutils.ErrHookScript)
		assert.Contains(t, err.Error(), "1.1 is blocked")
	})

	t.Run("Script aborts with an error value", func(t *testing.T) {
		executor.AddScript(hooks.PostUpdate, `err = error("post step failed")`)
		err := executor.Execute(hooks.PostUpdate, ctx)
		assert.ErrorIs(t, err, errutils.ErrHookScript)
	})

	t.Run("Runtime error", func(t *testing.T) {
		executor.AddScript(hooks.PostUpdate, `non_existent_function()`)
		err := executor.Execute(hooks.PostUpdate, ctx)
		assert.ErrorIs(t, err, errutils.ErrHookExecution)
	})

	t.Run("Execute non-existent script", func(t *testing.T) {
		assert.NoError(t, executor.Execute("non-existent-hook", ctx))
	})

	t.Run("HasScript check", func(t *testing.T) {
		hookType := hooks.HookType("test-hook")
		assert.False(t, executor.HasScript(hookType))
		executor.AddScript(hookType, "// test script")
		assert.True(t, executor.HasScript(hookType))
		executor.RemoveScript(hookType)
		assert.False(t, executor.HasScript(hookType))
	})
}
