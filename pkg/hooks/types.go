package hooks

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PreUpdate  HookType = "pre-update"
	PostUpdate HookType = "post-update"
)

// HookTypes lists the supported hook types in execution order.
var HookTypes = []HookType{PreUpdate, PostUpdate}

// Valid reports whether t is a supported hook type.
func (t HookType) Valid() bool {
	return t == PreUpdate || t == PostUpdate
}

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	PackageID      string
	CurrentVersion string
	TargetVersion  string
	UpdateMode     string
	Vars           map[string]interface{}
}

// HookManager defines the interface for managing hooks.
type HookManager interface {
	// Execute runs the specified hook type with the given context
	Execute(hookType HookType, ctx HookContext) error

	// AddHook adds a new hook
	AddHook(hook Hook) error

	// RemoveHook removes a hook of the specified type
	RemoveHook(hookType HookType) error

	// HasHook checks if a hook of the specified type exists
	HasHook(hookType HookType) bool
}
