package version

import (
	"strings"

	"github.com/glorpus-work/nupack/pkg/errutils"
)

// Spec is a version interval. A nil bound is unbounded on that side.
type Spec struct {
	Min          *Version
	MinInclusive bool
	Max          *Version
	MaxInclusive bool
}

// AtLeast returns the spec [v, ).
func AtLeast(v Version) Spec {
	return Spec{Min: &v, MinInclusive: true}
}

// Exact returns the spec [v].
func Exact(v Version) Spec {
	return Spec{Min: &v, MinInclusive: true, Max: &v, MaxInclusive: true}
}

// Between returns the spec [lower, upper).
func Between(lower, upper Version) Spec {
	return Spec{Min: &lower, MinInclusive: true, Max: &upper}
}

// Satisfies reports whether v lies inside the interval.
func (s Spec) Satisfies(v Version) bool {
	if s.Min != nil {
		c := v.Compare(*s.Min)
		if c < 0 || (c == 0 && !s.MinInclusive) {
			return false
		}
	}
	if s.Max != nil {
		c := v.Compare(*s.Max)
		if c > 0 || (c == 0 && !s.MaxInclusive) {
			return false
		}
	}
	return true
}

// IsUnbounded reports whether the spec accepts every version.
func (s Spec) IsUnbounded() bool {
	return s.Min == nil && s.Max == nil
}

// String renders the spec in interval notation; ParseSpec accepts the result.
func (s Spec) String() string {
	if s.Min != nil && s.Max != nil && s.MinInclusive && s.MaxInclusive && s.Min.Equal(*s.Max) {
		return "[" + s.Min.String() + "]"
	}
	var b strings.Builder
	if s.Min != nil && s.MinInclusive {
		b.WriteString("[")
	} else {
		b.WriteString("(")
	}
	if s.Min != nil {
		b.WriteString(s.Min.String())
	}
	b.WriteString(", ")
	if s.Max != nil {
		b.WriteString(s.Max.String())
	}
	if s.Max != nil && s.MaxInclusive {
		b.WriteString("]")
	} else {
		b.WriteString(")")
	}
	return b.String()
}

// ParseSpec parses interval notation. A bare version "1.0" means [1.0, ).
func ParseSpec(text string) (Spec, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Spec{}, errutils.NewParseError("version spec", text, "empty string")
	}

	first, last := s[0], s[len(s)-1]
	if first != '[' && first != '(' {
		v, err := Parse(s)
		if err != nil {
			return Spec{}, errutils.NewParseError("version spec", text, err.Error())
		}
		return AtLeast(v), nil
	}
	if len(s) < 3 || (last != ']' && last != ')') {
		return Spec{}, errutils.NewParseError("version spec", text, "unbalanced brackets")
	}

	spec := Spec{MinInclusive: first == '[', MaxInclusive: last == ']'}
	parts := strings.Split(s[1:len(s)-1], ",")

	switch len(parts) {
	case 1:
		if !spec.MinInclusive || !spec.MaxInclusive {
			return Spec{}, errutils.NewParseError("version spec", text, "an exact version must use [x]")
		}
		v, err := Parse(parts[0])
		if err != nil {
			return Spec{}, errutils.NewParseError("version spec", text, err.Error())
		}
		return Exact(v), nil
	case 2:
	default:
		return Spec{}, errutils.NewParseError("version spec", text, "too many bounds")
	}

	if lower := strings.TrimSpace(parts[0]); lower != "" {
		v, err := Parse(lower)
		if err != nil {
			return Spec{}, errutils.NewParseError("version spec", text, err.Error())
		}
		spec.Min = &v
	}
	if upper := strings.TrimSpace(parts[1]); upper != "" {
		v, err := Parse(upper)
		if err != nil {
			return Spec{}, errutils.NewParseError("version spec", text, err.Error())
		}
		spec.Max = &v
	}

	switch {
	case spec.Min == nil && spec.MinInclusive, spec.Max == nil && spec.MaxInclusive:
		return Spec{}, errutils.NewParseError("version spec", text, "an open bound cannot be inclusive")
	case spec.Min != nil && spec.Max != nil:
		c := spec.Min.Compare(*spec.Max)
		if c > 0 || (c == 0 && !(spec.MinInclusive && spec.MaxInclusive)) {
			return Spec{}, errutils.NewParseError("version spec", text, "empty range")
		}
	}
	return spec, nil
}

// MustParseSpec is like ParseSpec but panics on error.
func MustParseSpec(s string) Spec {
	spec, err := ParseSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// MarshalText implements encoding.TextMarshaler.
func (s Spec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Spec) UnmarshalText(text []byte) error {
	parsed, err := ParseSpec(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
