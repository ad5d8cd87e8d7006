package parser

import (
	"fmt"
	"strings"
)

// AccumulationMode is the policy for reconciling repeated occurrences of
// the same option.
type AccumulationMode int

const (
	// LastWins keeps the most recently seen value; occurrences still
	// counts every appearance.
	LastWins AccumulationMode = iota
	// FirstWins keeps the first seen value and ignores later ones.
	FirstWins
	// ErrorOnDuplicate rejects any occurrence past the first.
	ErrorOnDuplicate
	// Collect concatenates every occurrence's values into an ordered
	// sequence.
	Collect
	// Count ignores values; the result is the number of occurrences. Only
	// valid for flags.
	Count
)

func (m AccumulationMode) String() string {
	switch m {
	case LastWins:
		return "last_wins"
	case FirstWins:
		return "first_wins"
	case ErrorOnDuplicate:
		return "error_on_duplicate"
	case Collect:
		return "collect"
	case Count:
		return "count"
	default:
		return "unknown"
	}
}

// OptionSpec is an immutable declarative description of a single option.
// Instances are only ever produced, fully validated, by OptionBuilder.Build.
type OptionSpec struct {
	name             string
	long             []string
	short            []rune
	arity            Arity
	accumulationMode AccumulationMode
	isFlag           bool
	negationPrefixes []string
	flagConst        string
	flattenValues    bool
	allowCombined    bool
}

func (o *OptionSpec) Name() string                      { return o.name }
func (o *OptionSpec) LongNames() []string                { return append([]string(nil), o.long...) }
func (o *OptionSpec) ShortNames() []rune                 { return append([]rune(nil), o.short...) }
func (o *OptionSpec) Arity() Arity                       { return o.arity }
func (o *OptionSpec) AccumulationMode() AccumulationMode { return o.accumulationMode }
func (o *OptionSpec) IsFlag() bool                       { return o.isFlag }
func (o *OptionSpec) NegationPrefixes() []string         { return append([]string(nil), o.negationPrefixes...) }
func (o *OptionSpec) FlagConst() string                  { return o.flagConst }
func (o *OptionSpec) FlattenValues() bool                { return o.flattenValues }
func (o *OptionSpec) AllowCombined() bool                { return o.allowCombined }

// canonicalName returns the first declared long name as "--name", falling
// back to the first short name as "-c" when no long names were declared,
// and to the option's internal name when neither was declared.
func (o *OptionSpec) canonicalName() string {
	if len(o.long) > 0 {
		return "--" + o.long[0]
	}
	if len(o.short) > 0 {
		return "-" + string(o.short[0])
	}
	return o.name
}

// OptionBuilder assembles an OptionSpec under a CommandBuilder, following
// the same fluent, terminal-returning idiom as the rest of the spec
// builders in this package.
type OptionBuilder struct {
	parent     *CommandBuilder
	spec       *OptionSpec
	err        error
	flagPinned bool
}

func newOptionBuilder(parent *CommandBuilder, name string) *OptionBuilder {
	return &OptionBuilder{
		parent: parent,
		spec: &OptionSpec{
			name:             name,
			arity:            Zero,
			isFlag:           true,
			accumulationMode: LastWins,
			flagConst:        "true",
			allowCombined:    true,
		},
	}
}

// Long adds a long (--name) form. Multiple long names act as aliases.
func (b *OptionBuilder) Long(names ...string) *OptionBuilder {
	b.spec.long = append(b.spec.long, names...)
	return b
}

// Short adds a short (-c) form. Multiple short characters act as aliases.
func (b *OptionBuilder) Short(chars ...rune) *OptionBuilder {
	b.spec.short = append(b.spec.short, chars...)
	return b
}

// Arity sets the option's value arity. Setting any arity other than Zero
// clears the is-flag bit unless Flag has been called to pin it explicitly.
func (b *OptionBuilder) Arity(a Arity) *OptionBuilder {
	b.spec.arity = a
	if !b.flagPinned {
		b.spec.isFlag = a.IsFlagArity()
	}
	if !b.spec.isFlag {
		b.spec.allowCombined = false
	}
	return b
}

// Flag pins the is-flag bit independently of arity. A flag with zero arity
// is the common case and needs no explicit call; this exists for the
// opposite combination — a zero-arity option that is not a flag. Such an
// option skips flag-style boolean resolution: a value-less occurrence
// records an empty value list, and an inline "=value" is rejected with
// OptionDoesNotAcceptValueError.
func (b *OptionBuilder) Flag(isFlag bool) *OptionBuilder {
	b.flagPinned = true
	b.spec.isFlag = isFlag
	if !isFlag {
		b.spec.allowCombined = false
	}
	return b
}

// AccumulationMode sets how repeated occurrences are reconciled.
func (b *OptionBuilder) AccumulationMode(mode AccumulationMode) *OptionBuilder {
	b.spec.accumulationMode = mode
	return b
}

// NegationPrefixes registers prefixes (e.g. "no") that, combined with this
// option's long names, invert a boolean flag.
func (b *OptionBuilder) NegationPrefixes(prefixes ...string) *OptionBuilder {
	b.spec.negationPrefixes = append(b.spec.negationPrefixes, prefixes...)
	return b
}

// FlagConst sets the value recorded for a flag occurrence that carries no
// explicit value. Defaults to "true". The literals "true" and "false" are
// recorded as bool values; any other string is recorded as given.
func (b *OptionBuilder) FlagConst(value string) *OptionBuilder {
	b.spec.flagConst = value
	return b
}

// FlattenValues controls, for Collect-mode multi-value options, whether
// values from multiple occurrences are flattened into one sequence.
func (b *OptionBuilder) FlattenValues(flatten bool) *OptionBuilder {
	b.spec.flattenValues = flatten
	return b
}

// AllowCombined controls whether this option may appear inside a short
// option cluster (-abc). Flags default to combinable; value-consuming
// options default to not combinable but may opt back in, in which case the
// remainder of the cluster is taken as the option's inline value.
func (b *OptionBuilder) AllowCombined(allow bool) *OptionBuilder {
	b.spec.allowCombined = allow
	return b
}

// Build validates the accumulated OptionSpec and returns the parent
// CommandBuilder, following the builder-returns-parent idiom used
// throughout this package. Validation errors are deferred to
// CommandBuilder.Build so that a caller can add several options before
// checking for mistakes.
func (b *OptionBuilder) Build() *CommandBuilder {
	spec, err := b.build()
	if err != nil {
		b.parent.deferErr(err)
		return b.parent
	}
	b.parent.addOption(spec)
	return b.parent
}

func (b *OptionBuilder) build() (*OptionSpec, error) {
	s := b.spec

	if len(s.long) == 0 && len(s.short) == 0 {
		return nil, &SpecValidationError{Kind: EmptyOptionName, SpecName: s.name, Message: "option must declare at least one long or short name"}
	}
	for _, ln := range s.long {
		if ln == "" || strings.HasPrefix(ln, "-") || strings.Contains(ln, "=") {
			return nil, &SpecValidationError{Kind: EmptyOptionName, SpecName: s.name, Message: fmt.Sprintf("long option name %q is invalid", ln)}
		}
	}
	for _, sn := range s.short {
		if sn == 0 {
			return nil, &SpecValidationError{Kind: InvalidShortName, SpecName: s.name, Message: "short option name must be a single non-zero rune"}
		}
	}
	if err := s.arity.validate(); err != nil {
		return nil, err
	}
	if s.isFlag && !s.arity.IsFlagArity() {
		return nil, &SpecValidationError{Kind: InvalidArity, SpecName: s.name, Message: "a flag option must have arity {0, 0}"}
	}
	if s.isFlag {
		switch s.accumulationMode {
		case LastWins, FirstWins, ErrorOnDuplicate, Count:
		default:
			return nil, &SpecValidationError{Kind: FlagAccumulationMismatch, SpecName: s.name, Message: "flags may only use LastWins, FirstWins, ErrorOnDuplicate, or Count accumulation"}
		}
	} else if s.accumulationMode == Count {
		return nil, &SpecValidationError{Kind: FlagAccumulationMismatch, SpecName: s.name, Message: "Count accumulation is only valid for flags"}
	}
	if len(s.negationPrefixes) > 0 {
		if !s.isFlag {
			return nil, &SpecValidationError{Kind: NegationOnNonBooleanFlag, SpecName: s.name, Message: "negation prefixes require a flag option"}
		}
		if s.flagConst != "true" && s.flagConst != "false" {
			return nil, &SpecValidationError{Kind: NegationOnNonBooleanFlag, SpecName: s.name, Message: "negation requires a boolean FlagConst (\"true\" or \"false\")"}
		}
	}
	return s, nil
}
