package element

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Converter validates a raw option value and returns its normalized form.
// Converters must be idempotent: feeding the result back must succeed and
// produce the same value.
type Converter func(value string) (string, error)

// Option is a single named entry of an option spec.
type Option struct {
	Name    string
	Convert Converter
}

// OptionSpec is an ordered option schema. Order matters for kinds which map
// positional arguments onto options.
type OptionSpec []Option

// Lookup returns option definition by name.
func (s OptionSpec) Lookup(name string) (Option, bool) {
	for _, o := range s {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// Names returns option names in declaration order.
func (s OptionSpec) Names() []string {
	names := make([]string, 0, len(s))
	for _, o := range s {
		names = append(names, o.Name)
	}
	return names
}

// Merge composes spec with extension fields and returns new spec. Extension
// entries replace base entries with the same name in place, new names are
// appended. Neither of the inputs is modified.
func (s OptionSpec) Merge(ext ...Option) OptionSpec {
	out := slices.Clone(s)
	for _, o := range ext {
		if i := slices.IndexFunc(out, func(b Option) bool { return b.Name == o.Name }); i >= 0 {
			out[i] = o
			continue
		}
		out = append(out, o)
	}
	return out
}

// Convert validates raw options against the spec. Unknown names and values
// rejected by the converters result in *OptionSchemaError.
func (s OptionSpec) Convert(kind Kind, raw map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for name, value := range raw {
		o, ok := s.Lookup(name)
		if !ok {
			return nil, &OptionSchemaError{Kind: kind, Option: name, Value: value, Err: ErrUnknownOption}
		}
		v, err := o.Convert(value)
		if err != nil {
			return nil, &OptionSchemaError{Kind: kind, Option: name, Value: value, Err: err}
		}
		out[name] = v
	}
	return out, nil
}

var (
	ErrUnknownOption = errors.New("unknown option")
	ErrValueRequired = errors.New("argument required but none supplied")
	ErrNoValueWanted = errors.New("no argument is allowed")
)

// Unchanged accepts any value, including empty one, trimming surrounding
// space.
func Unchanged(value string) (string, error) {
	return strings.TrimSpace(value), nil
}

// UnchangedRequired accepts any non empty value.
func UnchangedRequired(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", ErrValueRequired
	}
	return v, nil
}

// Flag accepts options given without value.
func Flag(value string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return "", ErrNoValueWanted
	}
	return "", nil
}

// Choice returns converter accepting one of the listed values (case
// insensitive), result is lowercased.
func Choice(values ...string) Converter {
	return func(value string) (string, error) {
		v := strings.ToLower(strings.TrimSpace(value))
		if slices.Contains(values, v) {
			return v, nil
		}
		return "", fmt.Errorf("%q unknown; choose from %s", value, strings.Join(values, ", "))
	}
}

// NonNegativeInt accepts integers >= 0.
func NonNegativeInt(value string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("not an integer: %w", err)
	}
	if n < 0 {
		return "", fmt.Errorf("negative value %d", n)
	}
	return strconv.Itoa(n), nil
}

// PositiveInt accepts integers > 0.
func PositiveInt(value string) (string, error) {
	v, err := NonNegativeInt(value)
	if err != nil {
		return "", err
	}
	if v == "0" {
		return "", errors.New("zero value")
	}
	return v, nil
}

// NonNegativeFloat accepts decimal numbers >= 0.
func NonNegativeFloat(value string) (string, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return "", fmt.Errorf("not a number: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("not a finite number %q", value)
	}
	if f < 0 {
		return "", fmt.Errorf("negative value %v", f)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

var (
	reLength = regexp.MustCompile(`^(-?[0-9]*\.?[0-9]+)\s*(px|em|rem|ex|ch|vw|vh|vmin|vmax|pt|pc|cm|mm|in|%)?$`)
	reAngle  = regexp.MustCompile(`^(-?[0-9]*\.?[0-9]+)\s*(deg|rad|grad|turn)?$`)
	reClass  = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

// Length accepts CSS length, value without unit is treated as pixels.
func Length(value string) (string, error) {
	m := reLength.FindStringSubmatch(strings.ToLower(strings.TrimSpace(value)))
	if m == nil {
		return "", fmt.Errorf("invalid length %q", value)
	}
	unit := m[2]
	if unit == "" {
		unit = "px"
	}
	return m[1] + unit, nil
}

// Angle accepts CSS angle, value without unit is treated as degrees.
func Angle(value string) (string, error) {
	m := reAngle.FindStringSubmatch(strings.ToLower(strings.TrimSpace(value)))
	if m == nil {
		return "", fmt.Errorf("invalid angle %q", value)
	}
	unit := m[2]
	if unit == "" {
		unit = "deg"
	}
	return m[1] + unit, nil
}

// ClassList accepts whitespace separated list of class names. Names are
// lowercased, anything outside [a-z0-9-] is replaced with dashes.
func ClassList(value string) (string, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return "", ErrValueRequired
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		c := ClassName(f)
		if !reClass.MatchString(c) {
			return "", fmt.Errorf("cannot make %q into a class name", f)
		}
		out = append(out, c)
	}
	return strings.Join(out, " "), nil
}

// ClassName normalizes single identifier into a class name.
func ClassName(in string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(in) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	return strings.TrimLeft(out, "0123456789-")
}
