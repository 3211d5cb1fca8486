package config

import (
	"errors"
	"fmt"
	"strings"
)

// OutputFmt specifies requested output type.
type OutputFmt int

const (
	// OutputFmtTree is an indented text dump of the node tree.
	OutputFmtTree OutputFmt = iota
	// OutputFmtXML is pseudo-XML consumed by renderers.
	OutputFmtXML
)

var ErrInvalidOutputFmt = errors.New("not a valid OutputFmt")

var outputFmtNames = []string{"tree", "xml"}

// OutputFmtNames returns list of possible string values of OutputFmt.
func OutputFmtNames() []string {
	return append([]string(nil), outputFmtNames...)
}

func (o OutputFmt) String() string {
	if o.IsValid() {
		return outputFmtNames[o]
	}
	return fmt.Sprintf("OutputFmt(%d)", int(o))
}

func (o OutputFmt) IsValid() bool {
	return o >= 0 && int(o) < len(outputFmtNames)
}

// ParseOutputFmt converts case insensitive name to OutputFmt.
func ParseOutputFmt(name string) (OutputFmt, error) {
	for i, n := range outputFmtNames {
		if strings.EqualFold(n, name) {
			return OutputFmt(i), nil
		}
	}
	return OutputFmt(0), fmt.Errorf("%s is %w", name, ErrInvalidOutputFmt)
}

func MustParseOutputFmt(name string) OutputFmt {
	o, err := ParseOutputFmt(name)
	if err != nil {
		panic(err)
	}
	return o
}

func (o OutputFmt) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("%d is %w", int(o), ErrInvalidOutputFmt)
	}
	return []byte(o.String()), nil
}

func (o *OutputFmt) UnmarshalText(text []byte) error {
	v, err := ParseOutputFmt(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Ext returns file extension for the output format.
func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtTree:
		return ".tree.txt"
	case OutputFmtXML:
		return ".xml"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}
