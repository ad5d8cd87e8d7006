package parser

import "strings"

// Parser drives a single parse invocation against a root CommandSpec. A
// Parser holds no state between calls; the same instance may be reused
// freely, including concurrently, since CommandSpec is immutable.
type Parser struct {
	root *CommandSpec
}

// New returns a Parser bound to the given root command specification.
func New(root *CommandSpec) *Parser {
	return &Parser{root: root}
}

// Parse consumes tokens left to right against the Parser's root command
// and returns the resulting parse tree, or a ParseError describing the
// first inconsistency encountered. Parse never mutates tokens or the
// spec tree, and never returns a partial result alongside an error.
func (p *Parser) Parse(tokens []string) (*ParseResult, error) {
	state := &cursor{tokens: tokens}
	return parseLevel(p.root, "", state)
}

// cursor tracks the shared read position across a recursive chain of
// parseLevel calls, so that error indices refer to the original token
// sequence regardless of subcommand nesting depth.
type cursor struct {
	tokens []string
	pos    int
}

func (c *cursor) done() bool        { return c.pos >= len(c.tokens) }
func (c *cursor) peek() string      { return c.tokens[c.pos] }
func (c *cursor) peekAt(i int) string { return c.tokens[i] }

// occurrenceAcc accumulates the raw per-occurrence values seen for one
// option across a single command level, deferring reconciliation to
// finalizeOptions so that ErrorOnDuplicate can still fail fast during
// the scan.
type occurrenceAcc struct {
	spec        *OptionSpec
	values      []any
	firstAlias  string
	lastAlias   string
	occurrences int
	anyNegated  bool
}

// parseLevel implements the single-pass state machine described for one
// command level: option/positional/subcommand dispatch, followed by the
// positional grouping post-pass. A successful subcommand resolution
// recurses explicitly and returns a tagged subtree rather than unwinding
// through an exception, per this package's control-flow convention.
func parseLevel(cmd *CommandSpec, aliasUsed string, state *cursor) (*ParseResult, error) {
	acc := make(map[string]*occurrenceAcc)
	var positionalsAcc []string
	seenPositional := false
	positionalsLocked := false
	trailing := false
	var extras []string
	var sub *ParseResult

	for !state.done() {
		tok := state.peek()
		idx := state.pos

		switch {
		case trailing:
			extras = append(extras, tok)
			state.pos++

		case tok == "--":
			trailing = true
			state.pos++

		case strings.HasPrefix(tok, "--") && len(tok) > 2:
			if positionalsLocked {
				positionalsAcc = append(positionalsAcc, tok)
				state.pos++
				continue
			}
			if err := handleLongOption(cmd, state, acc, idx, tok); err != nil {
				return nil, err
			}

		case strings.HasPrefix(tok, "-") && len(tok) >= 2 && tok != "--":
			if positionalsLocked {
				positionalsAcc = append(positionalsAcc, tok)
				state.pos++
				continue
			}
			if cmd.config.AllowNegativeNumbers && !hasRegisteredShort(cmd, tok) && cmd.config.isNegativeNumber(tok) {
				positionalsAcc = append(positionalsAcc, tok)
				seenPositional = true
				if locksAfterPositional(cmd) {
					positionalsLocked = true
				}
				state.pos++
				continue
			}
			if err := handleShortCluster(cmd, state, acc, idx, tok); err != nil {
				return nil, err
			}

		default:
			if positionalsLocked {
				positionalsAcc = append(positionalsAcc, tok)
				state.pos++
				continue
			}
			consumed, childResult, err := handlePositionalOrSubcommand(cmd, state, tok, idx, seenPositional)
			if err != nil {
				return nil, err
			}
			if childResult != nil {
				sub = childResult
				goto finalize
			}
			if consumed {
				positionalsAcc = append(positionalsAcc, tok)
				seenPositional = true
				if locksAfterPositional(cmd) {
					positionalsLocked = true
				}
				state.pos++
			}
		}
	}

finalize:
	options, err := finalizeOptions(cmd, acc)
	if err != nil {
		return nil, err
	}
	positionals, err := groupPositionals(cmd, positionalsAcc)
	if err != nil {
		return nil, err
	}

	return &ParseResult{
		command:     cmd.name,
		alias:       aliasUsed,
		options:     options,
		positionals: positionals,
		extras:      extras,
		subcommand:  sub,
	}, nil
}

// locksAfterPositional reports whether, once a positional has been
// accumulated, every later token should be captured literally rather than
// re-attempting option or subcommand resolution. StrictOptionOrder and
// AllowInterleavedOptions=false both trigger the same lock; they differ
// only in which default a caller reaches for.
func locksAfterPositional(cmd *CommandSpec) bool {
	return cmd.config.StrictOptionOrder || !cmd.config.AllowInterleavedOptions
}

func hasRegisteredShort(cmd *CommandSpec, tok string) bool {
	r := []rune(tok)
	if len(r) < 2 {
		return false
	}
	_, ok := resolveShortOption(cmd, r[1])
	return ok
}

// handleLongOption processes one "--name" or "--name=value" token.
func handleLongOption(cmd *CommandSpec, state *cursor, acc map[string]*occurrenceAcc, idx int, tok string) error {
	body := tok[2:]
	namePart := body
	var inlineValue *string
	if eq := strings.IndexByte(body, '='); eq >= 0 {
		namePart = body[:eq]
		v := body[eq+1:]
		inlineValue = &v
	}

	if namePart == "" {
		return unknownOptionError(tok, idx, cmd.name, allLongNames(cmd))
	}

	res, candidates, err := resolveLongOption(cmd, namePart)
	if err != nil {
		return err
	}
	if candidates != nil {
		return ambiguousOptionError(tok, idx, cmd.name, candidates)
	}
	if res == nil {
		return unknownOptionError(tok, idx, cmd.name, allLongNames(cmd))
	}

	state.pos++ // consume the option token itself
	alias := "--" + namePart

	if res.option.isFlag {
		value, err := resolveFlagValue(cmd, res.option, res.negated, inlineValue, tok, idx)
		if err != nil {
			return err
		}
		return recordOccurrence(acc, res.option, alias, value, res.negated, tok, idx, cmd.name)
	}

	values, err := collectOptionValues(cmd, state, res.option, inlineValue, tok, idx)
	if err != nil {
		return err
	}
	var value any
	if res.option.arity.IsScalar() {
		value = values[0]
	} else {
		value = values
	}
	return recordOccurrence(acc, res.option, alias, value, false, tok, idx, cmd.name)
}

// handleShortCluster processes one "-c1c2...cn" token.
func handleShortCluster(cmd *CommandSpec, state *cursor, acc map[string]*occurrenceAcc, idx int, tok string) error {
	runes := []rune(tok)[1:] // drop leading '-'
	originalTok := tok

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		opt, ok := resolveShortOption(cmd, c)
		if !ok {
			return unknownOptionError(originalTok, idx, cmd.name, allLongNames(cmd))
		}
		alias := "-" + string(c)

		if i > 0 && !opt.allowCombined {
			return optionCannotBeCombinedError(originalTok, idx, cmd.name, opt.canonicalName())
		}

		if opt.isFlag {
			value, err := resolveFlagValue(cmd, opt, false, nil, originalTok, idx)
			if err != nil {
				return err
			}
			if err := recordOccurrence(acc, opt, alias, value, false, originalTok, idx, cmd.name); err != nil {
				return err
			}
			continue
		}

		// Value-consuming option: the remainder of the cluster (if any)
		// is its inline value; short-cluster scanning ends here.
		state.pos++
		var inline *string
		if i+1 < len(runes) {
			rest := string(runes[i+1:])
			inline = &rest
		}
		values, err := collectOptionValues(cmd, state, opt, inline, originalTok, idx)
		if err != nil {
			return err
		}
		var value any
		if opt.arity.IsScalar() {
			value = values[0]
		} else {
			value = values
		}
		return recordOccurrence(acc, opt, alias, value, false, originalTok, idx, cmd.name)
	}

	state.pos++
	return nil
}

// resolveFlagValue computes the effective value for one flag occurrence,
// honoring an inline "=value" form (when allowed) and negation-prefix
// matches. A bare, non-negated occurrence records a bool when opt.flagConst
// is "true" or "false", and opt.flagConst verbatim otherwise — flag_const
// need not be boolean. Negation always inverts a boolean truth value, per
// option.go's construction-time restriction that negation only applies to
// boolean-const flags.
func resolveFlagValue(cmd *CommandSpec, opt *OptionSpec, negated bool, inlineValue *string, tok string, idx int) (any, error) {
	if inlineValue == nil {
		if negated {
			return opt.flagConst != "true", nil
		}
		switch opt.flagConst {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return opt.flagConst, nil
	}

	if !cmd.config.AllowEqualsForFlags {
		return false, flagWithValueError(tok, idx, cmd.name, opt.canonicalName())
	}
	if cmd.config.isTruthy(*inlineValue) {
		if negated {
			return false, nil
		}
		return true, nil
	}
	if cmd.config.isFalsey(*inlineValue) {
		if negated {
			return true, nil
		}
		return false, nil
	}
	truthy, falsey := cmd.config.acceptedFlagValues()
	return false, invalidFlagValueError(tok, *inlineValue, idx, cmd.name, opt.canonicalName(), truthy, falsey)
}

// collectOptionValues gathers the value(s) for one occurrence of a
// value-consuming option, per §4.2's inline-value and greedy-collection
// rules. state.pos must already point past the option token itself.
func collectOptionValues(cmd *CommandSpec, state *cursor, opt *OptionSpec, inlineValue *string, tok string, idx int) ([]string, error) {
	arity := opt.arity

	if arity.IsFlagArity() && inlineValue != nil {
		return nil, optionDoesNotAcceptValueError(tok, idx, cmd.name, opt.canonicalName())
	}

	if arity.IsScalar() {
		if inlineValue != nil {
			return []string{*inlineValue}, nil
		}
		if state.done() {
			return nil, insufficientOptionValuesError(tok, idx, cmd.name, opt.canonicalName(), arity, 0)
		}
		v := state.peek()
		state.pos++
		return []string{v}, nil
	}

	var values []string
	if inlineValue != nil {
		values = append(values, *inlineValue)
	}
	for (arity.IsUnbounded() || len(values) < arity.Max) && !state.done() && !isBoundaryToken(cmd, state.peek()) {
		values = append(values, state.peek())
		state.pos++
	}
	if len(values) < arity.Min {
		return nil, insufficientOptionValuesError(tok, idx, cmd.name, opt.canonicalName(), arity, len(values))
	}
	return values, nil
}

// isBoundaryToken reports whether tok should stop greedy multi-value
// collection: a long or short option-looking token, the "--" separator,
// or a recognized subcommand name. A lone "-" is not a boundary.
func isBoundaryToken(cmd *CommandSpec, tok string) bool {
	if tok == "--" {
		return true
	}
	if len(tok) >= 2 && strings.HasPrefix(tok, "-") {
		return true
	}
	if cmd.HasSubcommands() {
		if canonical, _ := resolveSubcommand(cmd, tok); canonical != nil {
			return true
		}
	}
	return false
}

// recordOccurrence folds one option occurrence into its accumulator,
// failing immediately for ErrorOnDuplicate options past their first
// occurrence.
func recordOccurrence(acc map[string]*occurrenceAcc, opt *OptionSpec, alias string, value any, negated bool, tok string, idx int, cmdName string) error {
	a, ok := acc[opt.name]
	if !ok {
		a = &occurrenceAcc{spec: opt}
		acc[opt.name] = a
	}
	a.occurrences++
	if a.occurrences == 1 {
		a.firstAlias = alias
	}
	a.lastAlias = alias
	if negated {
		a.anyNegated = true
	}

	if opt.accumulationMode == ErrorOnDuplicate && a.occurrences > 1 {
		return duplicateOptionOccurrenceError(tok, idx, cmdName, opt.canonicalName())
	}
	if opt.accumulationMode != Count {
		a.values = append(a.values, value)
	}
	return nil
}

// finalizeOptions reconciles every accumulated option into its final
// ParsedOption per the configured accumulation mode.
func finalizeOptions(cmd *CommandSpec, acc map[string]*occurrenceAcc) (map[string]*ParsedOption, error) {
	out := make(map[string]*ParsedOption, len(acc))
	for name, a := range acc {
		opt := a.spec
		var value any
		var alias string

		switch opt.accumulationMode {
		case LastWins:
			value = a.values[len(a.values)-1]
			alias = a.lastAlias
		case FirstWins:
			value = a.values[0]
			alias = a.firstAlias
		case ErrorOnDuplicate:
			value = a.values[0]
			alias = a.firstAlias
		case Count:
			value = a.occurrences
			alias = a.lastAlias
		case Collect:
			value = collectFlatten(opt, cmd, a.values)
			alias = a.firstAlias
		}

		out[name] = &ParsedOption{
			name:        name,
			matchedName: alias,
			value:       value,
			occurrences: a.occurrences,
			negated:     a.anyNegated,
		}
	}
	return out, nil
}

// collectFlatten reconciles Collect-mode accumulation. A scalar-arity
// option's occurrences are always joined into a flat []string. A
// multi-value option's occurrences are flattened into a single []string
// when FlattenValues is set (on the option or the command default), or
// kept as a [][]string, one slice per occurrence, otherwise.
func collectFlatten(opt *OptionSpec, cmd *CommandSpec, values []any) any {
	allSlices := true
	for _, v := range values {
		if _, ok := v.([]string); !ok {
			allSlices = false
			break
		}
	}

	if !allSlices {
		flat := make([]string, 0, len(values))
		for _, v := range values {
			flat = append(flat, v.(string))
		}
		return flat
	}

	flatten := opt.flattenValues || cmd.config.FlattenOptionValues
	if flatten {
		var flat []string
		for _, v := range values {
			flat = append(flat, v.([]string)...)
		}
		return flat
	}

	nested := make([][]string, 0, len(values))
	for _, v := range values {
		nested = append(nested, v.([]string))
	}
	return nested
}

// groupPositionals implements the positional allocation post-pass of
// §4.2: bounded specs take min(max, remaining) while reserving enough for
// later minima, the sole unbounded spec absorbs whatever is left, and
// leftover tokens are either rejected or captured by an implicit
// catch-all.
func groupPositionals(cmd *CommandSpec, tokens []string) (map[string]*ParsedPositional, error) {
	specs := cmd.Positionals()
	out := make(map[string]*ParsedPositional, len(specs))

	if len(specs) == 0 {
		if len(tokens) == 0 {
			return out, nil
		}
		if cmd.config.ImplicitCatchAllPositional {
			out["args"] = &ParsedPositional{name: "args", value: append([]string(nil), tokens...)}
			return out, nil
		}
		return nil, unexpectedPositionalArgumentError(tokens[0], -1, cmd.name)
	}

	minSum := 0
	for _, s := range specs {
		minSum += s.arity.Min
	}
	n := len(tokens)
	if n < minSum {
		for _, s := range specs {
			if s.arity.Min > 0 {
				return nil, insufficientPositionalArgumentsError(cmd.name, s.name, s.arity.Min, n)
			}
		}
	}

	// Suffix sum of minima to reserve enough tokens for specs to the
	// right of each position.
	suffixMin := make([]int, len(specs)+1)
	for i := len(specs) - 1; i >= 0; i-- {
		suffixMin[i] = suffixMin[i+1] + specs[i].arity.Min
	}

	pos := 0
	remaining := n
	for i, s := range specs {
		reserveForRest := suffixMin[i+1]
		available := remaining - reserveForRest
		if available < 0 {
			available = 0
		}

		var take int
		if s.arity.IsUnbounded() {
			take = available
		} else {
			take = s.arity.Max
			if take > available {
				take = available
			}
		}
		if take < s.arity.Min {
			if remaining < s.arity.Min {
				return nil, insufficientPositionalArgumentsError(cmd.name, s.name, s.arity.Min, remaining)
			}
			take = s.arity.Min
		}

		allocated := tokens[pos : pos+take]
		pos += take
		remaining -= take

		if s.arity.IsScalar() {
			out[s.name] = &ParsedPositional{name: s.name, value: allocated[0]}
		} else {
			out[s.name] = &ParsedPositional{name: s.name, value: append([]string(nil), allocated...)}
		}
	}

	if pos < n {
		return nil, unexpectedPositionalArgumentError(tokens[pos], -1, cmd.name)
	}

	return out, nil
}

// handlePositionalOrSubcommand implements §4.2 rule 5: attempt subcommand
// resolution when one is eligible, otherwise report the token for
// positional accumulation by the caller.
func handlePositionalOrSubcommand(cmd *CommandSpec, state *cursor, tok string, idx int, seenPositional bool) (consumeAsPositional bool, child *ParseResult, err error) {
	cfg := cmd.config
	eligible := cmd.HasSubcommands() && (!seenPositional || !cfg.StopAtUnknownSubcommand)

	if !eligible {
		return true, nil, nil
	}

	subSpec, candidates := resolveSubcommand(cmd, tok)
	if candidates != nil {
		return false, nil, ambiguousSubcommandError(tok, idx, cmd.name, candidates)
	}
	if subSpec != nil {
		state.pos++
		sub, err := parseLevel(subSpec, tok, state)
		if err != nil {
			return false, nil, err
		}
		return false, sub, nil
	}

	if len(cmd.Positionals()) == 0 {
		return false, nil, unknownSubcommandError(tok, idx, cmd.name, allSubcommandNames(cmd))
	}
	return true, nil, nil
}
