package parser

import (
	"fmt"
	"strings"
)

// CommandSpec is an immutable declarative description of a command: its
// options, positionals, subcommands, and the parser configuration in
// effect for it. Instances are produced exclusively by CommandBuilder.Build
// and are safe to share across threads and calls once built.
type CommandSpec struct {
	name    string
	aliases []string

	optionOrder []string
	options     map[string]*OptionSpec

	positionals []*PositionalSpec

	subcommandOrder []string
	subcommands     map[string]*CommandSpec
	// aliasToCanonical maps every subcommand name and alias to the
	// subcommand's canonical name.
	aliasToCanonical map[string]string

	config *ParserConfiguration

	longNameIndex  map[string]string // normalized long name -> option name
	shortNameIndex map[rune]string   // short char -> option name
}

func (c *CommandSpec) Name() string        { return c.name }
func (c *CommandSpec) Aliases() []string    { return append([]string(nil), c.aliases...) }
func (c *CommandSpec) Config() *ParserConfiguration { return c.config }

// Option looks up an option spec by its declared name (not its long/short
// form).
func (c *CommandSpec) Option(name string) (*OptionSpec, bool) {
	o, ok := c.options[name]
	return o, ok
}

// Options returns option specs in declaration order.
func (c *CommandSpec) Options() []*OptionSpec {
	out := make([]*OptionSpec, 0, len(c.optionOrder))
	for _, name := range c.optionOrder {
		out = append(out, c.options[name])
	}
	return out
}

// Positionals returns positional specs in declaration order.
func (c *CommandSpec) Positionals() []*PositionalSpec {
	return append([]*PositionalSpec(nil), c.positionals...)
}

// Subcommand looks up a subcommand spec by its canonical name.
func (c *CommandSpec) Subcommand(name string) (*CommandSpec, bool) {
	s, ok := c.subcommands[name]
	return s, ok
}

// HasSubcommands reports whether this command declares any subcommands.
func (c *CommandSpec) HasSubcommands() bool {
	return len(c.subcommands) > 0
}

// CommandBuilder assembles a CommandSpec, mirroring the nested
// builder-returns-parent navigation used throughout this package. Build
// errors from child option/positional/subcommand builders are deferred;
// the first one recorded is returned when Build is finally called on the
// root.
type CommandBuilder struct {
	parent *CommandBuilder // nil for the root command

	name    string
	aliases []string

	optionOrder []string
	options     map[string]*OptionSpec

	positionals []*PositionalSpec

	subcommandOrder []string
	subcommands     map[string]*CommandBuilder

	configOpts    []ConfigOption
	inheritedConfig *ParserConfiguration

	err error
}

// NewCommand starts a root CommandBuilder. Use Subcommand on the result to
// nest children.
func NewCommand(name string) *CommandBuilder {
	return &CommandBuilder{
		name:    name,
		options: make(map[string]*OptionSpec),
	}
}

// Alias registers additional names this command may be invoked by when it
// is used as a subcommand.
func (b *CommandBuilder) Alias(names ...string) *CommandBuilder {
	b.aliases = append(b.aliases, names...)
	return b
}

// Configure appends ParserConfiguration options applied when this
// command's configuration is built. If never called, the command inherits
// its parent's configuration by reference.
func (b *CommandBuilder) Configure(opts ...ConfigOption) *CommandBuilder {
	b.configOpts = append(b.configOpts, opts...)
	return b
}

// Option starts building a new OptionSpec for this command.
func (b *CommandBuilder) Option(name string) *OptionBuilder {
	return newOptionBuilder(b, name)
}

// Positional starts building a new PositionalSpec for this command.
func (b *CommandBuilder) Positional(name string) *PositionalBuilder {
	return newPositionalBuilder(b, name)
}

// Subcommand starts building a nested CommandSpec. The child inherits the
// parent's configuration unless it calls Configure itself.
func (b *CommandBuilder) Subcommand(name string) *CommandBuilder {
	if b.subcommands == nil {
		b.subcommands = make(map[string]*CommandBuilder)
	}
	child := &CommandBuilder{
		parent:  b,
		name:    name,
		options: make(map[string]*OptionSpec),
	}
	b.subcommandOrder = append(b.subcommandOrder, name)
	b.subcommands[name] = child
	return child
}

// End returns to the parent CommandBuilder, for chaining back out of a
// nested Subcommand call. Calling End on the root returns itself.
func (b *CommandBuilder) End() *CommandBuilder {
	if b.parent == nil {
		return b
	}
	return b.parent
}

func (b *CommandBuilder) deferErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *CommandBuilder) addOption(spec *OptionSpec) {
	if _, exists := b.options[spec.name]; exists {
		b.deferErr(&SpecValidationError{Kind: DuplicateOptionName, SpecName: spec.name, Message: "option name already declared on this command"})
		return
	}
	b.optionOrder = append(b.optionOrder, spec.name)
	b.options[spec.name] = spec
}

func (b *CommandBuilder) addPositional(spec *PositionalSpec) {
	b.positionals = append(b.positionals, spec)
}

// Build validates the accumulated command tree (this command and every
// descendant subcommand) and returns the root CommandSpec, or the first
// SpecValidationError encountered. Build must be called on the root
// builder returned by NewCommand.
func (b *CommandBuilder) Build() (*CommandSpec, error) {
	if b.parent != nil {
		return nil, &SpecValidationError{Kind: EmptyOptionName, SpecName: b.name, Message: "Build must be called on the root command builder, not a subcommand"}
	}
	return b.build(nil)
}

func (b *CommandBuilder) build(parentConfig *ParserConfiguration) (*CommandSpec, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, &SpecValidationError{Kind: EmptyOptionName, Message: "command name must not be empty"}
	}

	config := parentConfig
	if len(b.configOpts) > 0 || config == nil {
		built, err := NewParserConfiguration(b.configOpts...)
		if err != nil {
			return nil, err
		}
		config = built
	}

	spec := &CommandSpec{
		name:             b.name,
		aliases:          append([]string(nil), b.aliases...),
		optionOrder:      append([]string(nil), b.optionOrder...),
		options:          b.options,
		positionals:      append([]*PositionalSpec(nil), b.positionals...),
		subcommandOrder:  append([]string(nil), b.subcommandOrder...),
		subcommands:      make(map[string]*CommandSpec, len(b.subcommands)),
		aliasToCanonical: make(map[string]string),
		config:           config,
		longNameIndex:    make(map[string]string),
		shortNameIndex:   make(map[rune]string),
	}

	if err := spec.buildNameIndexes(); err != nil {
		return nil, err
	}
	if err := spec.validatePositionals(); err != nil {
		return nil, err
	}

	for _, childName := range b.subcommandOrder {
		if childName == "--" {
			return nil, &SpecValidationError{Kind: ReservedToken, SpecName: childName, Message: "subcommand name must not be the reserved token \"--\""}
		}
		childBuilder := b.subcommands[childName]
		childSpec, err := childBuilder.build(config)
		if err != nil {
			return nil, err
		}
		if err := spec.registerSubcommand(childSpec); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

func (c *CommandSpec) registerSubcommand(child *CommandSpec) error {
	names := append([]string{child.name}, child.aliases...)
	for _, n := range names {
		key := c.normalizeSubcommandName(n)
		if existing, exists := c.aliasToCanonical[key]; exists {
			return &SpecValidationError{Kind: DuplicateSubcommandName, SpecName: n, Message: fmt.Sprintf("subcommand name/alias %q already registered (canonical %q)", n, existing)}
		}
		c.aliasToCanonical[key] = child.name
	}
	c.subcommands[child.name] = child
	return nil
}

func (c *CommandSpec) normalizeSubcommandName(name string) string {
	if c.config.CaseSensitiveSubcommand {
		return name
	}
	return strings.ToLower(name)
}

func (c *CommandSpec) buildNameIndexes() error {
	// Long and short names are indexed first, in full, so that the
	// negation-prefix collision check below sees every sibling name
	// regardless of declaration order.
	for _, optName := range c.optionOrder {
		opt := c.options[optName]
		for _, ln := range opt.long {
			key := c.normalizeLongName(ln)
			if existing, exists := c.longNameIndex[key]; exists {
				return &SpecValidationError{Kind: DuplicateOptionName, SpecName: ln, Message: fmt.Sprintf("long option name %q already registered (on option %q)", ln, existing)}
			}
			c.longNameIndex[key] = optName
		}
		for _, sn := range opt.short {
			key := c.normalizeShortName(sn)
			if existing, exists := c.shortNameIndex[key]; exists {
				return &SpecValidationError{Kind: DuplicateShortName, SpecName: string(sn), Message: fmt.Sprintf("short option name %q already registered (on option %q)", string(sn), existing)}
			}
			c.shortNameIndex[key] = optName
		}
	}
	for _, optName := range c.optionOrder {
		opt := c.options[optName]
		for _, prefix := range opt.negationPrefixes {
			for _, ln := range opt.long {
				negatedKey := c.normalizeLongName(prefix + "-" + ln)
				if existing, exists := c.longNameIndex[negatedKey]; exists {
					return &SpecValidationError{Kind: ConflictingNegationPrefix, SpecName: ln, Message: fmt.Sprintf("negated form %q collides with existing long name on option %q", prefix+"-"+ln, existing)}
				}
			}
		}
	}
	return nil
}

func (c *CommandSpec) normalizeLongName(name string) string {
	if c.config.NormalizeUnderscoresToDashes {
		name = strings.ReplaceAll(name, "_", "-")
	}
	if !c.config.CaseSensitiveLong {
		name = strings.ToLower(name)
	}
	return name
}

func (c *CommandSpec) normalizeShortName(r rune) rune {
	if c.config.CaseSensitiveShort {
		return r
	}
	return []rune(strings.ToLower(string(r)))[0]
}

func (c *CommandSpec) validatePositionals() error {
	unbounded := 0
	for _, p := range c.positionals {
		if p.arity.IsUnbounded() {
			unbounded++
		}
	}
	if unbounded > 1 {
		return &SpecValidationError{Kind: MultipleUnboundedPositionals, SpecName: c.name, Message: "at most one positional may have unbounded arity"}
	}
	return nil
}
