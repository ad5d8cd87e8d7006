package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// defaultTruthyValues and defaultFalseyValues back --flag=value coercion
// when a command's ParserConfiguration does not override them.
var (
	defaultTruthyValues = []string{"true", "1", "yes", "on"}
	defaultFalseyValues = []string{"false", "0", "no", "off"}
)

// nestedQuantifierPattern flags regexes of the shape (a+)+ or (a*)* that are
// classic ReDoS shapes; it is not an exhaustive safety check.
var nestedQuantifierPattern = regexp.MustCompile(`\([^)]*[+*][^)]*\)[+*]`)

// ParserConfiguration is the flat record of knobs controlling how a command
// and its descendants are parsed. A CommandSpec without an explicit
// override inherits its parent's configuration by reference.
type ParserConfiguration struct {
	AllowAbbreviations           bool
	AbbreviationMinLength        int
	CaseSensitiveLong            bool
	CaseSensitiveShort           bool
	CaseSensitiveSubcommand      bool
	NormalizeUnderscoresToDashes bool
	StrictOptionOrder            bool
	AllowInterleavedOptions      bool
	AllowNegativeNumbers         bool
	NegativeNumberPattern        string
	AllowEqualsForFlags          bool
	TruthyValues                 []string
	FalseyValues                 []string
	ImplicitCatchAllPositional   bool
	StopAtUnknownSubcommand      bool
	FlattenOptionValues          bool

	negativeNumberRegexp *regexp.Regexp
	truthySet            map[string]bool
	falseySet            map[string]bool
}

// DefaultParserConfiguration returns the baseline configuration: GNU-style
// interleaved options, no abbreviations, case-sensitive matching,
// underscore-to-dash normalization on, and sane truthy/falsey defaults.
func DefaultParserConfiguration() *ParserConfiguration {
	cfg, err := NewParserConfiguration()
	if err != nil {
		// The zero-value defaults are known-valid; a construction failure
		// here would be a bug in this function, not caller input.
		panic(err)
	}
	return cfg
}

// ConfigOption mutates a ParserConfiguration under construction.
type ConfigOption func(*ParserConfiguration)

func WithAllowAbbreviations(allow bool) ConfigOption {
	return func(c *ParserConfiguration) { c.AllowAbbreviations = allow }
}

func WithAbbreviationMinLength(n int) ConfigOption {
	return func(c *ParserConfiguration) { c.AbbreviationMinLength = n }
}

func WithCaseSensitiveLong(sensitive bool) ConfigOption {
	return func(c *ParserConfiguration) { c.CaseSensitiveLong = sensitive }
}

func WithCaseSensitiveShort(sensitive bool) ConfigOption {
	return func(c *ParserConfiguration) { c.CaseSensitiveShort = sensitive }
}

func WithCaseSensitiveSubcommand(sensitive bool) ConfigOption {
	return func(c *ParserConfiguration) { c.CaseSensitiveSubcommand = sensitive }
}

func WithNormalizeUnderscoresToDashes(normalize bool) ConfigOption {
	return func(c *ParserConfiguration) { c.NormalizeUnderscoresToDashes = normalize }
}

func WithStrictOptionOrder(strict bool) ConfigOption {
	return func(c *ParserConfiguration) { c.StrictOptionOrder = strict }
}

func WithAllowInterleavedOptions(allow bool) ConfigOption {
	return func(c *ParserConfiguration) { c.AllowInterleavedOptions = allow }
}

func WithAllowNegativeNumbers(allow bool) ConfigOption {
	return func(c *ParserConfiguration) { c.AllowNegativeNumbers = allow }
}

// WithNegativeNumberPattern overrides the regex used to recognize negative
// numeric literals when AllowNegativeNumbers is true. An empty string keeps
// the built-in decimal/float pattern.
func WithNegativeNumberPattern(pattern string) ConfigOption {
	return func(c *ParserConfiguration) { c.NegativeNumberPattern = pattern }
}

func WithAllowEqualsForFlags(allow bool) ConfigOption {
	return func(c *ParserConfiguration) { c.AllowEqualsForFlags = allow }
}

func WithTruthyValues(values ...string) ConfigOption {
	return func(c *ParserConfiguration) { c.TruthyValues = values }
}

func WithFalseyValues(values ...string) ConfigOption {
	return func(c *ParserConfiguration) { c.FalseyValues = values }
}

func WithImplicitCatchAllPositional(implicit bool) ConfigOption {
	return func(c *ParserConfiguration) { c.ImplicitCatchAllPositional = implicit }
}

func WithStopAtUnknownSubcommand(stop bool) ConfigOption {
	return func(c *ParserConfiguration) { c.StopAtUnknownSubcommand = stop }
}

func WithFlattenOptionValues(flatten bool) ConfigOption {
	return func(c *ParserConfiguration) { c.FlattenOptionValues = flatten }
}

const defaultNegativeNumberPattern = `^-\d+(\.\d+)?([eE][+-]?\d+)?$`

// NewParserConfiguration builds a ParserConfiguration from the baseline
// defaults plus any supplied options, validating the result before
// returning it. The returned configuration is safe to share across
// commands and threads.
func NewParserConfiguration(opts ...ConfigOption) (*ParserConfiguration, error) {
	c := &ParserConfiguration{
		AllowAbbreviations:           false,
		AbbreviationMinLength:        3,
		CaseSensitiveLong:            true,
		CaseSensitiveShort:           true,
		CaseSensitiveSubcommand:      true,
		NormalizeUnderscoresToDashes: true,
		StrictOptionOrder:            false,
		AllowInterleavedOptions:      true,
		AllowNegativeNumbers:         false,
		AllowEqualsForFlags:          false,
		ImplicitCatchAllPositional:   true,
		StopAtUnknownSubcommand:      false,
		FlattenOptionValues:          false,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ParserConfiguration) validate() error {
	if c.AbbreviationMinLength < 1 {
		return &SpecValidationError{
			Kind:    InvalidArity,
			Message: "AbbreviationMinLength must be at least 1",
		}
	}

	pattern := c.NegativeNumberPattern
	if pattern == "" {
		pattern = defaultNegativeNumberPattern
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return &SpecValidationError{Kind: InvalidArity, Message: "invalid negative number pattern", Cause: errors.Wrap(err, "compiling negative number pattern")}
	}
	if compiled.MatchString("") {
		return &SpecValidationError{Kind: InvalidArity, Message: "negative number pattern must not match the empty string"}
	}
	if nestedQuantifierPattern.MatchString(pattern) {
		return &SpecValidationError{Kind: InvalidArity, Message: "negative number pattern contains nested quantifiers that may cause catastrophic backtracking"}
	}
	c.negativeNumberRegexp = compiled

	truthy := c.TruthyValues
	if truthy == nil {
		truthy = defaultTruthyValues
	}
	falsey := c.FalseyValues
	if falsey == nil {
		falsey = defaultFalseyValues
	}
	if err := validateFlagValueSet("TruthyValues", truthy); err != nil {
		return err
	}
	if err := validateFlagValueSet("FalseyValues", falsey); err != nil {
		return err
	}
	if overlap := intersect(truthy, falsey); len(overlap) > 0 {
		sort.Strings(overlap)
		return &SpecValidationError{Kind: InvalidArity, Message: "TruthyValues and FalseyValues must not overlap: " + strings.Join(overlap, ", ")}
	}
	c.truthySet = toLowerSet(truthy)
	c.falseySet = toLowerSet(falsey)

	return nil
}

func validateFlagValueSet(field string, values []string) error {
	if len(values) == 0 {
		return &SpecValidationError{Kind: InvalidArity, Message: field + " must not be empty"}
	}
	for _, v := range values {
		if v == "" {
			return &SpecValidationError{Kind: InvalidArity, Message: field + " must contain only non-empty strings"}
		}
	}
	return nil
}

func intersect(a, b []string) []string {
	set := toLowerSet(a)
	var out []string
	seen := map[string]bool{}
	for _, v := range b {
		lv := strings.ToLower(v)
		if set[lv] && !seen[lv] {
			out = append(out, v)
			seen[lv] = true
		}
	}
	return out
}

func toLowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}

// isTruthy reports whether value (compared case-insensitively) is a member
// of the truthy set.
func (c *ParserConfiguration) isTruthy(value string) bool {
	return c.truthySet[strings.ToLower(value)]
}

// isFalsey reports whether value (compared case-insensitively) is a member
// of the falsey set.
func (c *ParserConfiguration) isFalsey(value string) bool {
	return c.falseySet[strings.ToLower(value)]
}

// isNegativeNumber reports whether token matches the configured negative
// number pattern.
func (c *ParserConfiguration) isNegativeNumber(token string) bool {
	return c.negativeNumberRegexp.MatchString(token)
}

// acceptedFlagValues returns the effective truthy and falsey values, each
// in its configured order, for error reporting.
func (c *ParserConfiguration) acceptedFlagValues() (truthy, falsey []string) {
	truthy = c.TruthyValues
	if truthy == nil {
		truthy = defaultTruthyValues
	}
	falsey = c.FalseyValues
	if falsey == nil {
		falsey = defaultFalseyValues
	}
	return truthy, falsey
}
