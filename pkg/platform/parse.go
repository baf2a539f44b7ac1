package platform

import (
	"regexp"
	"strings"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/version"
)

var compactTokenRe = regexp.MustCompile(`^([A-Za-z]+)([0-9][0-9.]*)?(?:-[A-Za-z]+)?$`)

// ParseTarget parses one compact token such as "net45", "sl3" or "wp".
// Undotted digits are read one component each: "45" is 4.5, "451" is 4.5.1.
// A framework profile suffix ("net40-client") is accepted and dropped.
func ParseTarget(token string) (Target, error) {
	tok := strings.TrimSpace(token)
	m := compactTokenRe.FindStringSubmatch(tok)
	if m == nil {
		return Target{}, errutils.NewParseError("platform target", token, "expected letters followed by an optional version")
	}

	identifier, ok := shortNames[strings.ToLower(m[1])]
	if !ok {
		return Target{}, errutils.NewParseError("platform target", token, "unknown framework "+m[1])
	}

	v, err := parseCompactVersion(m[2])
	if err != nil {
		return Target{}, errutils.NewParseError("platform target", token, err.Error())
	}
	return Target{Identifier: identifier, Version: v}, nil
}

func parseCompactVersion(digits string) (version.Version, error) {
	switch {
	case digits == "":
		return version.Version{}, nil
	case strings.Contains(digits, "."):
		return version.Parse(digits)
	case len(digits) == 1:
		return version.Parse(digits + ".0")
	default:
		return version.Parse(strings.Join(strings.Split(digits, ""), "."))
	}
}

// ParseCompact parses a '+'-separated list of compact tokens, such as
// "sl3+net+netcore45", into a profile.
func ParseCompact(text string) (*Profile, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errutils.NewParseError("platform profile", text, "empty string")
	}
	tokens := strings.Split(text, "+")
	targets := make([]Target, 0, len(tokens))
	for _, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			return nil, errutils.NewParseError("platform profile", text, "empty token")
		}
		t, err := ParseTarget(tok)
		if err != nil {
			return nil, errutils.Wrapf(err, "parsing profile %q", text)
		}
		targets = append(targets, t)
	}
	return NewProfile(targets...), nil
}

// ParseFrameworkName parses the long form ".NETFramework, Version=v4.5".
// Other comma separated components, such as Profile=, are ignored.
func ParseFrameworkName(name string) (Target, error) {
	parts := strings.Split(name, ",")
	identifier := strings.TrimSpace(parts[0])
	if identifier == "" {
		return Target{}, errutils.NewParseError("framework name", name, "missing identifier")
	}
	if short, ok := shortNames[strings.ToLower(identifier)]; ok {
		identifier = short
	}

	t := Target{Identifier: identifier}
	for _, part := range parts[1:] {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "version") {
			continue
		}
		v, err := version.Parse(strings.TrimPrefix(strings.TrimSpace(value), "v"))
		if err != nil {
			return Target{}, errutils.NewParseError("framework name", name, err.Error())
		}
		t.Version = v
	}
	return t, nil
}

// profileNameFromFullName extracts "Profile1" from
// ".NETPortable,Version=v4.0,Profile=Profile1".
func profileNameFromFullName(text string) (string, bool) {
	for _, part := range strings.Split(text, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if found && strings.EqualFold(strings.TrimSpace(key), "profile") {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}
