package element

import "fmt"

// ArityError is returned when number of directive arguments is outside of
// declared bounds.
type ArityError struct {
	Kind Kind
	Got  int
	Min  int
	Max  int
}

func (e *ArityError) Error() string {
	if e.Min == e.Max {
		return fmt.Sprintf("%s: expected %d argument(s), got %d", e.Kind, e.Min, e.Got)
	}
	return fmt.Sprintf("%s: expected %d to %d argument(s), got %d", e.Kind, e.Min, e.Max, e.Got)
}

// OptionSchemaError is returned when option is unknown or its value is
// rejected by the option converter.
type OptionSchemaError struct {
	Kind   Kind
	Option string
	Value  string
	Err    error
}

func (e *OptionSchemaError) Error() string {
	return fmt.Sprintf("%s: invalid option %q value %q: %v", e.Kind, e.Option, e.Value, e.Err)
}

func (e *OptionSchemaError) Unwrap() error {
	return e.Err
}

// MissingArgumentError is returned when directive required argument has not
// been supplied or is empty.
type MissingArgumentError struct {
	Directive string
	Argument  string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%q directive: missing required argument %q", e.Directive, e.Argument)
}
