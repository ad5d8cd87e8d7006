package parser

import (
	"fmt"
	"strings"
)

// SpecValidationKind enumerates the closed set of errors raised while
// constructing or validating a specification.
type SpecValidationKind string

const (
	DuplicateOptionName       SpecValidationKind = "duplicate_option_name"
	DuplicateShortName        SpecValidationKind = "duplicate_short_name"
	DuplicateSubcommandName   SpecValidationKind = "duplicate_subcommand_name"
	EmptyOptionName           SpecValidationKind = "empty_option_name"
	InvalidShortName          SpecValidationKind = "invalid_short_name"
	ConflictingNegationPrefix SpecValidationKind = "conflicting_negation_prefix"
	InvalidArity              SpecValidationKind = "invalid_arity"
	FlagAccumulationMismatch  SpecValidationKind = "flag_accumulation_mismatch"
	MultipleUnboundedPositionals SpecValidationKind = "multiple_unbounded_positionals"
	NegationOnNonBooleanFlag  SpecValidationKind = "negation_on_non_boolean_flag"
	ReservedToken             SpecValidationKind = "reserved_token"
)

// SpecValidationError reports a programming mistake in a command, option,
// or positional specification. It is raised at construction time, never
// during parsing.
type SpecValidationError struct {
	Kind    SpecValidationKind
	Message string
	// SpecName identifies the command/option/positional under construction,
	// when known.
	SpecName string
	Cause    error
}

func (e *SpecValidationError) Error() string {
	if e.SpecName != "" {
		return fmt.Sprintf("invalid spec %q: %s", e.SpecName, e.Message)
	}
	return e.Message
}

func (e *SpecValidationError) Unwrap() error { return e.Cause }

// ParseErrorKind enumerates the closed set of errors raised during parse.
type ParseErrorKind string

const (
	UnknownOption                       ParseErrorKind = "unknown_option"
	AmbiguousOption                     ParseErrorKind = "ambiguous_option"
	OptionCannotBeSpecifiedMultipleTimes ParseErrorKind = "option_cannot_be_specified_multiple_times"
	OptionDoesNotAcceptValue            ParseErrorKind = "option_does_not_accept_value"
	FlagWithValue                       ParseErrorKind = "flag_with_value"
	InvalidFlagValue                    ParseErrorKind = "invalid_flag_value"
	InsufficientOptionValues            ParseErrorKind = "insufficient_option_values"
	UnknownSubcommand                   ParseErrorKind = "unknown_subcommand"
	AmbiguousSubcommand                 ParseErrorKind = "ambiguous_subcommand"
	InsufficientPositionalArguments     ParseErrorKind = "insufficient_positional_arguments"
	UnexpectedPositionalArgument        ParseErrorKind = "unexpected_positional_argument"
	ParserConfigurationInconsistent     ParseErrorKind = "parser_configuration_error"
	OptionCannotBeCombined              ParseErrorKind = "option_cannot_be_combined"
)

// ParseError reports a failure encountered while parsing a token sequence.
// It carries enough structured context for a downstream reporter to render
// an actionable message without re-deriving it.
type ParseError struct {
	Kind ParseErrorKind
	// Token is the offending token, when applicable.
	Token string
	// Index is the position of Token within the original token sequence
	// passed to Parse, when applicable.
	Index int
	// CommandName is the name of the command spec active when the error
	// occurred.
	CommandName string
	// Candidates lists the ambiguous or known-name matches, for
	// AmbiguousOption, AmbiguousSubcommand, UnknownOption, and
	// UnknownSubcommand.
	Candidates []string
	// Expected/Received describe arity mismatches.
	Expected string
	Received int

	message string
}

func (e *ParseError) Error() string {
	if e.message != "" {
		return e.message
	}
	return string(e.Kind)
}

// newParseError builds a ParseError with a rendered message, following the
// same shape as the hand-written messages in the exception taxonomy this
// parser's resolution rules are modeled on.
func newParseError(kind ParseErrorKind, message string) *ParseError {
	return &ParseError{Kind: kind, message: message}
}

func unknownOptionError(token string, index int, commandName string, candidates []string) *ParseError {
	e := newParseError(UnknownOption, fmt.Sprintf("unknown option %q", token))
	e.Token, e.Index, e.CommandName, e.Candidates = token, index, commandName, candidates
	return e
}

func ambiguousOptionError(token string, index int, commandName string, candidates []string) *ParseError {
	e := newParseError(AmbiguousOption, fmt.Sprintf("ambiguous option %q: possible matches: %s", token, strings.Join(candidates, ", ")))
	e.Token, e.Index, e.CommandName, e.Candidates = token, index, commandName, candidates
	return e
}

func duplicateOptionOccurrenceError(token string, index int, commandName, canonicalName string) *ParseError {
	e := newParseError(OptionCannotBeSpecifiedMultipleTimes, fmt.Sprintf("option %q (%s) cannot be specified multiple times", token, canonicalName))
	e.Token, e.Index, e.CommandName = token, index, commandName
	return e
}

func optionDoesNotAcceptValueError(token string, index int, commandName, canonicalName string) *ParseError {
	e := newParseError(OptionDoesNotAcceptValue, fmt.Sprintf("option %q (%s) does not accept a value", token, canonicalName))
	e.Token, e.Index, e.CommandName = token, index, commandName
	return e
}

func flagWithValueError(token string, index int, commandName, canonicalName string) *ParseError {
	e := newParseError(FlagWithValue, fmt.Sprintf("flag %q (%s) does not accept a value; enable AllowEqualsForFlags to override", token, canonicalName))
	e.Token, e.Index, e.CommandName = token, index, commandName
	return e
}

func invalidFlagValueError(token, value string, index int, commandName, canonicalName string, truthy, falsey []string) *ParseError {
	accepted := append(append([]string{}, truthy...), falsey...)
	e := newParseError(InvalidFlagValue, fmt.Sprintf("invalid value %q for flag %q (%s); expected one of: %s", value, token, canonicalName, strings.Join(accepted, ", ")))
	e.Token, e.Index, e.CommandName = token, index, commandName
	return e
}

func insufficientOptionValuesError(token string, index int, commandName, canonicalName string, arity Arity, received int) *ParseError {
	e := newParseError(InsufficientOptionValues, fmt.Sprintf("insufficient values for option %q (%s): expected %s, received %d", token, canonicalName, arity, received))
	e.Token, e.Index, e.CommandName, e.Expected, e.Received = token, index, commandName, arity.String(), received
	return e
}

func unknownSubcommandError(token string, index int, commandName string, candidates []string) *ParseError {
	e := newParseError(UnknownSubcommand, fmt.Sprintf("unknown subcommand %q", token))
	e.Token, e.Index, e.CommandName, e.Candidates = token, index, commandName, candidates
	return e
}

func ambiguousSubcommandError(token string, index int, commandName string, candidates []string) *ParseError {
	e := newParseError(AmbiguousSubcommand, fmt.Sprintf("ambiguous subcommand %q: possible matches: %s", token, strings.Join(candidates, ", ")))
	e.Token, e.Index, e.CommandName, e.Candidates = token, index, commandName, candidates
	return e
}

func insufficientPositionalArgumentsError(commandName, specName string, expectedMin, received int) *ParseError {
	e := newParseError(InsufficientPositionalArguments, fmt.Sprintf("positional %q requires at least %d value(s), got %d", specName, expectedMin, received))
	e.CommandName, e.Expected, e.Received = commandName, fmt.Sprintf("min %d", expectedMin), received
	return e
}

func unexpectedPositionalArgumentError(token string, index int, commandName string) *ParseError {
	e := newParseError(UnexpectedPositionalArgument, fmt.Sprintf("unexpected positional argument %q (command %q accepts no more positionals)", token, commandName))
	e.Token, e.Index, e.CommandName = token, index, commandName
	return e
}

func optionCannotBeCombinedError(token string, index int, commandName, canonicalName string) *ParseError {
	e := newParseError(OptionCannotBeCombined, fmt.Sprintf("option %q (%s) cannot be combined with other options", token, canonicalName))
	e.Token, e.Index, e.CommandName = token, index, commandName
	return e
}

func parserConfigurationInconsistentError(commandName, detail string) *ParseError {
	e := newParseError(ParserConfigurationInconsistent, fmt.Sprintf("inherited parser configuration is inconsistent for command %q: %s", commandName, detail))
	e.CommandName = commandName
	return e
}
