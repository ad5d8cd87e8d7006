package parser

// ParseResult is the immutable outcome of parsing one command level. When
// the input invoked a subcommand, Subcommand holds the nested result for
// the remainder of the token stream.
type ParseResult struct {
	command string
	alias   string

	options     map[string]*ParsedOption
	positionals map[string]*ParsedPositional
	extras      []string

	subcommand *ParseResult
}

// Command returns the canonical name of the command this result belongs
// to.
func (r *ParseResult) Command() string { return r.command }

// Alias returns the name or alias token actually used to reach this
// command level, or "" if it is the root.
func (r *ParseResult) Alias() string { return r.alias }

// Option looks up a parsed option occurrence by its spec name.
func (r *ParseResult) Option(name string) (*ParsedOption, bool) {
	o, ok := r.options[name]
	return o, ok
}

// Options returns every option recorded at this level, keyed by spec name.
func (r *ParseResult) Options() map[string]*ParsedOption {
	out := make(map[string]*ParsedOption, len(r.options))
	for k, v := range r.options {
		out[k] = v
	}
	return out
}

// Positional looks up a parsed positional occurrence by its spec name.
func (r *ParseResult) Positional(name string) (*ParsedPositional, bool) {
	p, ok := r.positionals[name]
	return p, ok
}

// Positionals returns every positional recorded at this level, keyed by
// spec name.
func (r *ParseResult) Positionals() map[string]*ParsedPositional {
	out := make(map[string]*ParsedPositional, len(r.positionals))
	for k, v := range r.positionals {
		out[k] = v
	}
	return out
}

// Extras returns the tokens captured after a "--" separator at this level.
func (r *ParseResult) Extras() []string {
	return append([]string(nil), r.extras...)
}

// Subcommand returns the nested result for the subcommand invoked at this
// level, or nil if none was invoked.
func (r *ParseResult) Subcommand() *ParseResult { return r.subcommand }

// ParsedOption is the recorded outcome of one or more occurrences of an
// option.
type ParsedOption struct {
	name        string
	matchedName string
	value       any
	occurrences int
	negated     bool
}

func (p *ParsedOption) Name() string        { return p.name }
func (p *ParsedOption) MatchedName() string { return p.matchedName }
func (p *ParsedOption) Value() any          { return p.value }
func (p *ParsedOption) Occurrences() int    { return p.occurrences }
func (p *ParsedOption) Negated() bool       { return p.negated }

// StringValue asserts the option's value is a single string, as produced
// by LastWins/FirstWins scalar options.
func (p *ParsedOption) StringValue() (string, bool) {
	s, ok := p.value.(string)
	return s, ok
}

// Values asserts the option's value is an ordered sequence of strings, as
// produced by Collect mode or multi-value arities.
func (p *ParsedOption) Values() ([]string, bool) {
	v, ok := p.value.([]string)
	return v, ok
}

// CountValue asserts the option's value is an occurrence count, as
// produced by Count mode.
func (p *ParsedOption) CountValue() (int, bool) {
	v, ok := p.value.(int)
	return v, ok
}

// NestedValues asserts the option's value is one slice of strings per
// occurrence, as produced by Collect mode on a multi-value option when
// FlattenValues is not set.
func (p *ParsedOption) NestedValues() ([][]string, bool) {
	v, ok := p.value.([][]string)
	return v, ok
}

// ParsedPositional is the recorded outcome of a positional's allocation.
type ParsedPositional struct {
	name  string
	value any
}

func (p *ParsedPositional) Name() string { return p.name }
func (p *ParsedPositional) Value() any   { return p.value }

// StringValue asserts the positional's value is a single string, as
// produced by scalar (1,1) positionals.
func (p *ParsedPositional) StringValue() (string, bool) {
	s, ok := p.value.(string)
	return s, ok
}

// Values asserts the positional's value is an ordered sequence of strings,
// as produced by any non-scalar arity.
func (p *ParsedPositional) Values() ([]string, bool) {
	v, ok := p.value.([]string)
	return v, ok
}
