package hooks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/nupack/pkg/errutils"
)

// HookFileExtension is the extension of hook script files.
const HookFileExtension = ".tengo"

// LoadHookFiles registers the script file configured for each hook type.
// Empty paths are skipped.
func LoadHookFiles(manager HookManager, files map[HookType]string) error {
	for _, hookType := range HookTypes {
		path := strings.TrimSpace(files[hookType])
		if path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return errutils.Wrapf(err, "error reading hook file %s", path)
		}
		if err := manager.AddHook(Hook{Type: hookType, Content: string(content)}); err != nil {
			return errutils.Wrapf(err, "error adding hook %s", hookType)
		}
	}
	return nil
}

// LoadHooksFromDir registers <dir>/pre-update.tengo and
// <dir>/post-update.tengo when present.
func LoadHooksFromDir(manager HookManager, dir string) error {
	files := make(map[HookType]string)
	for _, hookType := range HookTypes {
		path := filepath.Join(dir, string(hookType)+HookFileExtension)
		if _, err := os.Stat(path); err == nil {
			files[hookType] = path
		}
	}
	return LoadHookFiles(manager, files)
}
