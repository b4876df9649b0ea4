package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/types"
)

// PlatformContext is everything template expansion may consult. It is a
// plain value so expansion stays a pure function of (template, context).
type PlatformContext struct {
	OS   string
	Home string
	Vars map[string]string
}

// CurrentPlatform builds the context for this process: the environment plus
// a few well-known directories that are not environment variables everywhere
func CurrentPlatform() PlatformContext {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = v
		}
	}

	home, _ := GetHomeDirectory()
	setDefault(vars, "HOME", home)
	setDefault(vars, "XDG_DATA_HOME", xdg.DataHome)
	setDefault(vars, "XDG_CONFIG_HOME", xdg.ConfigHome)
	setDefault(vars, "DOCUMENTS", xdg.UserDirs.Documents)

	if runtime.GOOS == "windows" {
		setDefault(vars, "USERPROFILE", home)
		setDefault(vars, "APPDATA", filepath.Join(home, "AppData", "Roaming"))
		setDefault(vars, "LOCALAPPDATA", filepath.Join(home, "AppData", "Local"))
		setDefault(vars, "SAVED_GAMES", filepath.Join(home, "Saved Games"))
	}

	return PlatformContext{OS: runtime.GOOS, Home: home, Vars: vars}
}

func setDefault(vars map[string]string, key, value string) {
	if value == "" {
		return
	}
	if existing, ok := vars[key]; ok && existing != "" {
		return
	}
	vars[key] = value
}

// ExpandTemplate turns a template into a concrete path. ok is false when the
// template targets another platform. Unknown variables and results that are
// not absolute are errors.
func ExpandTemplate(tpl types.PathTemplate, ctx PlatformContext) (path string, ok bool, err error) {
	if !tpl.Platform.Matches(ctx.OS) {
		return "", false, nil
	}

	raw := strings.TrimSpace(tpl.Path)
	if raw == "" {
		return "", true, errors.New(errors.ErrInvalidInput, "template path is empty")
	}

	var missing []string
	expanded := os.Expand(raw, func(name string) string {
		if v, found := ctx.Vars[name]; found && v != "" {
			return v
		}
		missing = append(missing, name)
		return ""
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", true, errors.Newf(errors.ErrInvalidInput, "template %q references unset variables: %s",
			tpl.Path, strings.Join(missing, ", ")).
			WithDetail("missing", missing)
	}

	if ctx.Home != "" {
		expanded = expandHomeWith(expanded, ctx.Home)
	}
	expanded = filepath.Clean(expanded)

	if !filepath.IsAbs(expanded) {
		return "", true, errors.Newf(errors.ErrInvalidInput, "template %q expands to relative path %q", tpl.Path, expanded)
	}
	return expanded, true, nil
}
