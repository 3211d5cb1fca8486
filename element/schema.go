package element

import (
	"strings"
)

// Schema declares arity and option spec of a descriptor kind.
type Schema struct {
	Kind     Kind
	Required int
	Optional int
	// Positional kinds accept optional positional arguments in place of
	// options, in option declaration order.
	Positional bool
	// FinalArgumentWhitespace means last argument may contain spaces.
	FinalArgumentWhitespace bool
	Options                 OptionSpec

	compute func(args []string, opts, cdata map[string]string)
}

// Bounds returns minimum and maximum number of positional arguments.
func (s *Schema) Bounds() (int, int) {
	opt := s.Optional
	if s.Positional {
		opt = len(s.Options)
	}
	return s.Required, s.Required + opt
}

var (
	Themes      = []string{"black", "white", "league", "beige", "sky", "night", "serif", "simple", "solarized", "blood", "moon", "dracula"}
	Transitions = []string{"none", "fade", "slide", "convex", "concave", "zoom"}
	Shapes      = []string{"rect", "circle", "ellipse", "rounded"}
)

// Deck describes whole presentation.
var Deck = &Schema{
	Kind: KindDeck,
	Options: OptionSpec{
		{Name: "template", Convert: UnchangedRequired},
		{Name: "theme", Convert: Choice(Themes...)},
		{Name: "transition", Convert: Choice(Transitions...)},
		{Name: "width", Convert: PositiveInt},
		{Name: "height", Convert: PositiveInt},
		{Name: "margin", Convert: NonNegativeFloat},
	},
	compute: func(_ []string, opts, cdata map[string]string) {
		for k, v := range opts {
			cdata[k] = v
		}
	},
}

// Section describes single slide, it is shared by slide breaks.
var Section = &Schema{
	Kind:                    KindSection,
	Optional:                1,
	FinalArgumentWhitespace: true,
	Options: OptionSpec{
		{Name: "data-background-color", Convert: UnchangedRequired},
		{Name: "data-background-image", Convert: UnchangedRequired},
		{Name: "data-background-size", Convert: UnchangedRequired},
		{Name: "data-background-position", Convert: UnchangedRequired},
		{Name: "data-background-repeat", Convert: UnchangedRequired},
		{Name: "data-background-opacity", Convert: NonNegativeFloat},
		{Name: "data-background-video", Convert: UnchangedRequired},
		{Name: "data-background-iframe", Convert: UnchangedRequired},
		{Name: "data-background-transition", Convert: Choice(Transitions...)},
		{Name: "data-transition", Convert: UnchangedRequired},
		{Name: "data-transition-speed", Convert: Choice("default", "fast", "slow")},
		{Name: "data-auto-animate", Convert: Flag},
		{Name: "data-auto-animate-id", Convert: UnchangedRequired},
		{Name: "data-id", Convert: UnchangedRequired},
		{Name: "data-state", Convert: UnchangedRequired},
		{Name: "class", Convert: ClassList},
	},
	compute: func(args []string, opts, cdata map[string]string) {
		if len(args) > 0 {
			cdata[DataTitle] = args[0]
		}
		for k, v := range opts {
			if strings.HasPrefix(k, "data-") {
				cdata[k] = v
			}
		}
		if v, ok := opts["class"]; ok {
			cdata[DataClasses] = v
		}
	},
}

// Effect describes animation applied to the content.
var Effect = &Schema{
	Kind:       KindEffect,
	Positional: true,
	Options: OptionSpec{
		{Name: "animation", Convert: UnchangedRequired},
		{Name: "index", Convert: NonNegativeInt},
		{Name: "data-id", Convert: UnchangedRequired},
		{Name: "class", Convert: ClassList},
	},
	compute: computeAnimation,
}

// Fragments describes group of incrementally revealed elements.
var Fragments = &Schema{
	Kind:       KindFragments,
	Positional: true,
	Options: OptionSpec{
		{Name: "animation", Convert: UnchangedRequired},
		{Name: "data-id", Convert: UnchangedRequired},
	},
	compute: computeAnimation,
}

// Box describes positioned shape.
var Box = &Schema{
	Kind: KindBox,
	Options: OptionSpec{
		{Name: "shape", Convert: Choice(Shapes...)},
		{Name: "left", Convert: Length},
		{Name: "top", Convert: Length},
		{Name: "width", Convert: Length},
		{Name: "height", Convert: Length},
		{Name: "background", Convert: UnchangedRequired},
		{Name: "border", Convert: UnchangedRequired},
		{Name: "radius", Convert: Length},
		{Name: "rotate", Convert: Angle},
		{Name: "class", Convert: ClassList},
		{Name: "data-id", Convert: UnchangedRequired},
	},
	compute: computeBox,
}

// Title describes titled box, the only argument is the title text.
var Title = &Schema{
	Kind:                    KindTitle,
	Required:                1,
	FinalArgumentWhitespace: true,
	compute: func(args []string, _, cdata map[string]string) {
		cdata[DataTitle] = args[0]
	},
}

// Schemas lists all known descriptor schemas.
var Schemas = []*Schema{Deck, Section, Effect, Fragments, Box, Title}

func computeAnimation(_ []string, opts, cdata map[string]string) {
	for _, k := range []string{DataAnimation, DataIndex, DataID} {
		if v, ok := opts[k]; ok && v != "" {
			cdata[k] = v
		}
	}
	if v, ok := opts["class"]; ok {
		cdata[DataClasses] = v
	}
}

func computeBox(_ []string, opts, cdata map[string]string) {
	shape := opts["shape"]
	if shape == "" {
		shape = "rect"
	}
	cdata[DataShape] = shape

	var decl []string
	add := func(prop, value string) {
		decl = append(decl, prop+":"+value)
	}
	if _, ok := opts["left"]; ok {
		add("position", "absolute")
	} else if _, ok := opts["top"]; ok {
		add("position", "absolute")
	}
	for _, k := range []string{"left", "top", "width", "height", "background", "border"} {
		if v, ok := opts[k]; ok {
			add(k, v)
		}
	}
	switch r, ok := opts["radius"]; {
	case ok:
		add("border-radius", r)
	case shape == "circle" || shape == "ellipse":
		add("border-radius", "50%")
	case shape == "rounded":
		add("border-radius", "0.5em")
	}
	if v, ok := opts["rotate"]; ok {
		add("transform", "rotate("+v+")")
	}
	if len(decl) > 0 {
		cdata[DataStyle] = strings.Join(decl, ";")
	}
	if v, ok := opts["class"]; ok {
		cdata[DataClasses] = v
	}
	if v, ok := opts[DataID]; ok {
		cdata[DataID] = v
	}
}

// SchemaFor returns schema of the requested kind.
func SchemaFor(kind Kind) (*Schema, bool) {
	for _, s := range Schemas {
		if s.Kind == kind {
			return s, true
		}
	}
	return nil, false
}
