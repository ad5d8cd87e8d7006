package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDeployTool builds the root+subcommand spec used throughout the
// scenario tests: a deploy-tool root with --verbose/-v and --retain,
// plus a deploy subcommand carrying --region and a required env
// positional.
func newDeployTool(t *testing.T, opts ...ConfigOption) *CommandSpec {
	t.Helper()
	cb := NewCommand("deploy-tool")
	if len(opts) > 0 {
		cb.Configure(opts...)
	}
	cb.Option("verbose").Long("verbose").Short('v').Build()
	cb.Option("retain").Long("retain").Build()
	cb.Subcommand("deploy").
		Option("region").Long("region").Arity(ExactlyOne).Build().
		Positional("env").Build().
		End()
	spec, err := cb.Build()
	require.NoError(t, err)
	return spec
}

func TestParseVerboseThenSubcommandWithPositional(t *testing.T) {
	spec := newDeployTool(t)
	result, err := New(spec).Parse([]string{"--verbose", "deploy", "prod"})
	require.NoError(t, err)

	verbose, ok := result.Option("verbose")
	require.True(t, ok)
	v, _ := verbose.value.(bool)
	assert.True(t, v)
	assert.Equal(t, 1, verbose.Occurrences())
	assert.Equal(t, "--verbose", verbose.MatchedName())

	sub := result.Subcommand()
	require.NotNil(t, sub)
	assert.Equal(t, "deploy", sub.Command())
	env, ok := sub.Positional("env")
	require.True(t, ok)
	s, _ := env.StringValue()
	assert.Equal(t, "prod", s)
	_, hasRegion := sub.Option("region")
	assert.False(t, hasRegion)
}

func TestParseOptionDoesNotAcceptValueOnZeroArityNonFlag(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("enable").Long("enable").Flag(false).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	_, err = New(spec).Parse([]string{"--enable=now"})
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, OptionDoesNotAcceptValue, parseErr.Kind)
}

func TestParseShortFlagCountMode(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("verbose").Long("verbose").Short('v').AccumulationMode(Count).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"-v", "-v", "-v"})
	require.NoError(t, err)

	verbose, ok := result.Option("verbose")
	require.True(t, ok)
	count, ok := verbose.CountValue()
	require.True(t, ok)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, verbose.Occurrences())
	assert.Nil(t, result.Subcommand())
	assert.Empty(t, result.Positionals())
}

func TestParseSubcommandOptionWithEqualsAndPositional(t *testing.T) {
	spec := newDeployTool(t)
	result, err := New(spec).Parse([]string{"deploy", "--region=us-east-1", "prod"})
	require.NoError(t, err)

	sub := result.Subcommand()
	require.NotNil(t, sub)
	region, ok := sub.Option("region")
	require.True(t, ok)
	v, _ := region.StringValue()
	assert.Equal(t, "us-east-1", v)

	env, ok := sub.Positional("env")
	require.True(t, ok)
	s, _ := env.StringValue()
	assert.Equal(t, "prod", s)
}

func TestParseTrailingSeparatorCapturesExtrasVerbatim(t *testing.T) {
	spec := newDeployTool(t)
	result, err := New(spec).Parse([]string{"deploy", "prod", "--", "--not-an-option", "raw"})
	require.NoError(t, err)

	sub := result.Subcommand()
	require.NotNil(t, sub)
	env, ok := sub.Positional("env")
	require.True(t, ok)
	s, _ := env.StringValue()
	assert.Equal(t, "prod", s)
	assert.Equal(t, []string{"--not-an-option", "raw"}, sub.Extras())
}

func TestParseAbbreviatedLongOptionRecordsAliasUsed(t *testing.T) {
	spec := newDeployTool(t, WithAllowAbbreviations(true), WithAbbreviationMinLength(3))
	result, err := New(spec).Parse([]string{"--verb", "deploy", "prod"})
	require.NoError(t, err)

	verbose, ok := result.Option("verbose")
	require.True(t, ok)
	assert.Equal(t, "--verb", verbose.MatchedName())
}

func TestParseAmbiguousAbbreviationScopedPerCommand(t *testing.T) {
	cb := NewCommand("root").Configure(WithAllowAbbreviations(true), WithAbbreviationMinLength(2))
	cb.Option("retry").Long("retry").Build()
	cb.Option("retain").Long("retain").Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	_, err = New(spec).Parse([]string{"--ret"})
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, AmbiguousOption, parseErr.Kind)
	assert.Equal(t, []string{"retry", "retain"}, parseErr.Candidates)
}

func TestParseUnknownOptionError(t *testing.T) {
	spec := newDeployTool(t)
	_, err := New(spec).Parse([]string{"--bogus"})
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, UnknownOption, parseErr.Kind)
}

func TestParseErrorOnDuplicateRejectsSecondOccurrence(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("mode").Long("mode").Arity(ExactlyOne).AccumulationMode(ErrorOnDuplicate).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	_, err = New(spec).Parse([]string{"--mode", "a", "--mode", "b"})
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, OptionCannotBeSpecifiedMultipleTimes, parseErr.Kind)
}

func TestParseCollectModeGathersScalarOccurrencesInOrder(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("tag").Long("tag").Arity(ExactlyOne).AccumulationMode(Collect).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"--tag", "a", "--tag", "b", "--tag", "c"})
	require.NoError(t, err)

	tag, ok := result.Option("tag")
	require.True(t, ok)
	values, ok := tag.Values()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, values)
}

func TestParseMultiValueOptionGreedyCollectionStopsAtBoundary(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("files").Long("files").Arity(OneOrMore).Build()
	cb.Option("verbose").Long("verbose").Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"--files", "a.txt", "b.txt", "--verbose"})
	require.NoError(t, err)

	files, ok := result.Option("files")
	require.True(t, ok)
	values, ok := files.Values()
	require.True(t, ok)
	assert.Equal(t, []string{"a.txt", "b.txt"}, values)

	_, ok = result.Option("verbose")
	assert.True(t, ok)
}

func TestParseInsufficientOptionValuesError(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("files").Long("files").Arity(Arity{Min: 2, Max: 3}).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	_, err = New(spec).Parse([]string{"--files", "only-one"})
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, InsufficientOptionValues, parseErr.Kind)
}

func TestParseFlagNegationInvertsFlagConst(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("color").Long("color").NegationPrefixes("no").Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"--no-color"})
	require.NoError(t, err)
	color, ok := result.Option("color")
	require.True(t, ok)
	assert.True(t, color.Negated())
	assert.Equal(t, false, color.Value())
}

func TestParseFlagWithNonBooleanFlagConstRecordsLiteralValue(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("color").Long("color").FlagConst("production").Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"--color"})
	require.NoError(t, err)
	color, ok := result.Option("color")
	require.True(t, ok)
	assert.False(t, color.Negated())
	assert.Equal(t, "production", color.Value())
}

func TestParseShortClusterWithTrailingValueOptionOptedIntoCombining(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("verbose").Long("verbose").Short('v').Build()
	cb.Option("output").Long("output").Short('o').Arity(ExactlyOne).AllowCombined(true).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"-vofile.txt"})
	require.NoError(t, err)

	_, ok := result.Option("verbose")
	assert.True(t, ok)
	output, ok := result.Option("output")
	require.True(t, ok)
	v, _ := output.StringValue()
	assert.Equal(t, "file.txt", v)
}

func TestParseShortClusterRejectsNonCombinableValueOption(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("all").Long("all").Short('a').Build()
	cb.Option("file").Long("file").Short('f').Arity(ExactlyOne).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	_, err = New(spec).Parse([]string{"-af", "file.txt"})
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, OptionCannotBeCombined, parseErr.Kind)
}

func TestParseShortClusterAllowsNonCombinableValueOptionAlone(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("all").Long("all").Short('a').Build()
	cb.Option("file").Long("file").Short('f').Arity(ExactlyOne).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"-f", "file.txt"})
	require.NoError(t, err)
	file, ok := result.Option("file")
	require.True(t, ok)
	v, _ := file.StringValue()
	assert.Equal(t, "file.txt", v)
}

func TestParseUnknownShortInClusterReportsErrorAtCharacter(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("verbose").Long("verbose").Short('v').Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	_, err = New(spec).Parse([]string{"-vz"})
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, UnknownOption, parseErr.Kind)
}

func TestParseNegativeNumberTreatedAsPositionalWhenEnabled(t *testing.T) {
	cb := NewCommand("root").Configure(WithAllowNegativeNumbers(true))
	cb.Positional("n").Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"-42"})
	require.NoError(t, err)
	n, ok := result.Positional("n")
	require.True(t, ok)
	v, _ := n.StringValue()
	assert.Equal(t, "-42", v)
}

func TestParseRegisteredShortWinsOverNegativeNumber(t *testing.T) {
	cb := NewCommand("root").Configure(WithAllowNegativeNumbers(true))
	cb.Option("four").Short('4').Arity(ExactlyOne).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"-42"})
	require.NoError(t, err)
	four, ok := result.Option("four")
	require.True(t, ok)
	v, _ := four.StringValue()
	assert.Equal(t, "2", v)
}

func TestParseImplicitCatchAllPositionalWhenNoneDeclared(t *testing.T) {
	cb := NewCommand("root")
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"a", "b", "c"})
	require.NoError(t, err)
	args, ok := result.Positional("args")
	require.True(t, ok)
	values, ok := args.Values()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, values)
}

func TestParseUnexpectedPositionalArgumentWhenNoPositionalsDeclaredAndImplicitDisabled(t *testing.T) {
	cb := NewCommand("root").Configure(WithImplicitCatchAllPositional(false))
	spec, err := cb.Build()
	require.NoError(t, err)

	_, err = New(spec).Parse([]string{"extra"})
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, UnexpectedPositionalArgument, parseErr.Kind)
}

func TestParsePositionalGroupingReservesMinimaForLaterSpecs(t *testing.T) {
	cb := NewCommand("root")
	cb.Positional("first").Arity(ZeroOrMore).Build()
	cb.Positional("second").Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"a", "b", "c"})
	require.NoError(t, err)

	first, _ := result.Positional("first")
	firstValues, _ := first.Values()
	assert.Equal(t, []string{"a", "b"}, firstValues)

	second, _ := result.Positional("second")
	v, _ := second.StringValue()
	assert.Equal(t, "c", v)
}

func TestParseInsufficientPositionalArgumentsError(t *testing.T) {
	cb := NewCommand("root")
	cb.Positional("env").Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	_, err = New(spec).Parse(nil)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, InsufficientPositionalArguments, parseErr.Kind)
}

func TestParseStrictOptionOrderLocksAfterFirstPositional(t *testing.T) {
	cb := NewCommand("root").Configure(WithStrictOptionOrder(true))
	cb.Option("verbose").Long("verbose").Build()
	cb.Positional("rest").Arity(ZeroOrMore).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"first", "--verbose", "second"})
	require.NoError(t, err)

	_, ok := result.Option("verbose")
	assert.False(t, ok)

	rest, ok := result.Positional("rest")
	require.True(t, ok)
	values, _ := rest.Values()
	assert.Equal(t, []string{"first", "--verbose", "second"}, values)
}

func TestParseStrictOptionOrderLocksOutSubcommandResolutionToo(t *testing.T) {
	cb := NewCommand("root").Configure(WithStrictOptionOrder(true))
	cb.Subcommand("sub").End()
	cb.Positional("rest").Arity(ZeroOrMore).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"first", "sub", "second"})
	require.NoError(t, err)

	assert.Nil(t, result.Subcommand())
	rest, ok := result.Positional("rest")
	require.True(t, ok)
	values, _ := rest.Values()
	assert.Equal(t, []string{"first", "sub", "second"}, values)
}

func TestParseAllowInterleavedOptionsFalseLocksAfterFirstPositional(t *testing.T) {
	cb := NewCommand("root").Configure(WithAllowInterleavedOptions(false))
	cb.Option("verbose").Long("verbose").Build()
	cb.Positional("rest").Arity(ZeroOrMore).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"first", "--verbose", "second"})
	require.NoError(t, err)

	_, ok := result.Option("verbose")
	assert.False(t, ok)

	rest, ok := result.Positional("rest")
	require.True(t, ok)
	values, _ := rest.Values()
	assert.Equal(t, []string{"first", "--verbose", "second"}, values)
}

func TestParseAllowInterleavedOptionsTrueIsDefaultAndPermitsInterleaving(t *testing.T) {
	cb := NewCommand("root")
	cb.Option("verbose").Long("verbose").Build()
	cb.Positional("rest").Arity(ZeroOrMore).Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"first", "--verbose", "second"})
	require.NoError(t, err)

	_, ok := result.Option("verbose")
	assert.True(t, ok)

	rest, ok := result.Positional("rest")
	require.True(t, ok)
	values, _ := rest.Values()
	assert.Equal(t, []string{"first", "second"}, values)
}

func TestParseEmptyTokensWithNoRequiredPositionalsYieldsEmptyResult(t *testing.T) {
	cb := NewCommand("root")
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, result.Options())
	assert.Empty(t, result.Extras())
	assert.Nil(t, result.Subcommand())
}

func TestParseBareDashIsPositionalNotOption(t *testing.T) {
	cb := NewCommand("root")
	cb.Positional("file").Build()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"-"})
	require.NoError(t, err)
	file, ok := result.Positional("file")
	require.True(t, ok)
	v, _ := file.StringValue()
	assert.Equal(t, "-", v)
}

func TestParseDoubleDashWithEmptyNameIsUnknownOption(t *testing.T) {
	cb := NewCommand("root")
	spec, err := cb.Build()
	require.NoError(t, err)

	_, err = New(spec).Parse([]string{"--=x"})
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, UnknownOption, parseErr.Kind)
}

func TestParseNestedSubcommandRecursion(t *testing.T) {
	cb := NewCommand("myapp")
	cb.Subcommand("server").
		Subcommand("up").Option("dry-run").Long("dry-run").Build().End().
		End()
	spec, err := cb.Build()
	require.NoError(t, err)

	result, err := New(spec).Parse([]string{"server", "up", "--dry-run"})
	require.NoError(t, err)

	server := result.Subcommand()
	require.NotNil(t, server)
	assert.Equal(t, "server", server.Command())

	up := server.Subcommand()
	require.NotNil(t, up)
	assert.Equal(t, "up", up.Command())
	_, ok := up.Option("dry-run")
	assert.True(t, ok)
}

// TestParseCanonicalReconstructionRoundTrips checks the idempotence
// property from the testable-properties section: re-parsing the
// canonical long-form reconstruction of a result's occurrences should
// reproduce the same values (aliases are expected to change to their
// canonical long form, so those fields are ignored in the comparison).
func TestParseCanonicalReconstructionRoundTrips(t *testing.T) {
	spec := newDeployTool(t)
	original, err := New(spec).Parse([]string{"-v", "deploy", "--region=us-west-2", "staging"})
	require.NoError(t, err)

	canonical := []string{"--verbose", "deploy", "--region=us-west-2", "staging"}
	reparsed, err := New(spec).Parse(canonical)
	require.NoError(t, err)

	diff := cmp.Diff(original, reparsed,
		cmp.AllowUnexported(ParseResult{}, ParsedOption{}, ParsedPositional{}),
		cmpopts.IgnoreFields(ParsedOption{}, "matchedName"),
	)
	assert.Empty(t, diff)
}
