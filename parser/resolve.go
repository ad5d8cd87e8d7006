package parser

import (
	"fmt"
	"sort"
	"strings"
)

// resolution is the outcome of matching a user-supplied option token
// against a command's name indexes.
type resolution struct {
	option  *OptionSpec
	negated bool
}

// resolveLongOption implements §4.1's long-option resolution order: exact
// match, then exact negated-form match, then (if enabled) unique-abbreviation
// match. The abbreviation search space includes both plain long names and
// negated forms, so "--no-verb" can resolve to "--no-verbose" the same way
// "--verb" resolves to "--verbose". Ambiguous-match candidates are returned
// in declaration order, not sorted, per §4.1 rule 3.
func resolveLongOption(cmd *CommandSpec, rawName string) (*resolution, []string, error) {
	cfg := cmd.config
	normalized := cmd.normalizeLongName(rawName)

	if optName, ok := cmd.longNameIndex[normalized]; ok {
		return &resolution{option: cmd.options[optName]}, nil, nil
	}

	abbrevEligible := cfg.AllowAbbreviations && len([]rune(rawName)) >= cfg.AbbreviationMinLength

	if optName, negated := matchNegatedForm(cmd, normalized); optName != "" {
		if abbrevEligible {
			if collidesWithAbbreviation(cmd, normalized, optName) {
				return nil, nil, parserConfigurationInconsistentError(cmd.name, fmt.Sprintf("negated form %q collides with an abbreviation-resolved long name", rawName))
			}
		}
		return &resolution{option: cmd.options[optName], negated: negated}, nil, nil
	}

	if abbrevEligible {
		var matches []abbrevMatch
		for _, optName := range cmd.optionOrder {
			opt := cmd.options[optName]
			for _, ln := range opt.long {
				if strings.HasPrefix(cmd.normalizeLongName(ln), normalized) {
					matches = append(matches, abbrevMatch{optName: optName})
					break
				}
			}
			for _, prefix := range opt.negationPrefixes {
				for _, ln := range opt.long {
					negatedFull := prefix + "-" + ln
					if strings.HasPrefix(cmd.normalizeLongName(negatedFull), normalized) {
						matches = append(matches, abbrevMatch{optName: optName, negated: true, displayName: negatedFull})
					}
				}
			}
		}
		switch len(matches) {
		case 0:
			return nil, nil, nil
		case 1:
			m := matches[0]
			return &resolution{option: cmd.options[m.optName], negated: m.negated}, nil, nil
		default:
			var names []string
			for _, m := range matches {
				if m.negated {
					names = append(names, m.displayName)
					continue
				}
				names = append(names, cmd.options[m.optName].long...)
			}
			return nil, names, nil
		}
	}

	return nil, nil, nil
}

// abbrevMatch records one candidate surfaced while resolving a long-option
// abbreviation, whether against a plain long name or a negated form.
type abbrevMatch struct {
	optName     string
	negated     bool
	displayName string
}

// collidesWithAbbreviation reports whether normalized, besides matching
// exceptOptName's negated form, is also a valid abbreviation prefix of some
// other option's long name. Construction-time validation only rejects exact
// collisions between a negated form and a sibling's full long name; this
// catches the case that only exists once abbreviation matching is enabled.
func collidesWithAbbreviation(cmd *CommandSpec, normalized, exceptOptName string) bool {
	for _, optName := range cmd.optionOrder {
		if optName == exceptOptName {
			continue
		}
		opt := cmd.options[optName]
		for _, ln := range opt.long {
			if strings.HasPrefix(cmd.normalizeLongName(ln), normalized) {
				return true
			}
		}
	}
	return false
}

// matchNegatedForm checks whether normalized equals <prefix>-<long> for
// some option's negation prefix and long name.
func matchNegatedForm(cmd *CommandSpec, normalized string) (optName string, negated bool) {
	for name, opt := range cmd.options {
		for _, prefix := range opt.negationPrefixes {
			for _, ln := range opt.long {
				candidate := cmd.normalizeLongName(prefix + "-" + ln)
				if candidate == normalized {
					return name, true
				}
			}
		}
	}
	return "", false
}

// resolveShortOption implements exact short-name resolution; abbreviation
// never applies to short options.
func resolveShortOption(cmd *CommandSpec, r rune) (*OptionSpec, bool) {
	key := cmd.normalizeShortName(r)
	optName, ok := cmd.shortNameIndex[key]
	if !ok {
		return nil, false
	}
	return cmd.options[optName], true
}

// resolveSubcommand implements §4.1's subcommand resolution: exact match
// against name or alias, then (if enabled) unique-abbreviation match.
// Ambiguous-match candidates are returned in declaration order, not
// sorted, per §4.1 rule 3.
func resolveSubcommand(cmd *CommandSpec, token string) (*CommandSpec, []string) {
	cfg := cmd.config
	normalized := cmd.normalizeSubcommandName(token)

	if canonical, ok := cmd.aliasToCanonical[normalized]; ok {
		return cmd.subcommands[canonical], nil
	}

	if cfg.AllowAbbreviations && len([]rune(token)) >= cfg.AbbreviationMinLength {
		var matchedCanonical []string
		for _, canonicalName := range cmd.subcommandOrder {
			sub := cmd.subcommands[canonicalName]
			names := append([]string{sub.name}, sub.aliases...)
			for _, n := range names {
				if strings.HasPrefix(cmd.normalizeSubcommandName(n), normalized) {
					matchedCanonical = append(matchedCanonical, canonicalName)
					break
				}
			}
		}
		switch len(matchedCanonical) {
		case 0:
			return nil, nil
		case 1:
			return cmd.subcommands[matchedCanonical[0]], nil
		default:
			return nil, matchedCanonical
		}
	}

	return nil, nil
}

// allLongNames returns every declared long name and short character for a
// command, sorted, used to populate UnknownOptionError.all_names-style
// candidate lists.
func allLongNames(cmd *CommandSpec) []string {
	var names []string
	for _, opt := range cmd.Options() {
		names = append(names, opt.long...)
		for _, s := range opt.short {
			names = append(names, string(s))
		}
	}
	sort.Strings(names)
	return names
}

// allSubcommandNames returns every declared subcommand name and alias.
func allSubcommandNames(cmd *CommandSpec) []string {
	var names []string
	for key := range cmd.aliasToCanonical {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
