// Package cliargs implements the `--`-delimited section splitting and flat
// key/value options parsing shared by the parse and rewrite command-line
// tools. See spec.md §6.6.
package cliargs

import (
	"strconv"

	"github.com/grailbio/base/errors"
)

// SplitSections splits args on literal "--" tokens, returning one slice per
// section (sections may be empty). A leading or trailing "--" yields an
// empty first or last section, matching ordinary shell token splitting.
func SplitSections(args []string) [][]string {
	sections := [][]string{{}}
	for _, a := range args {
		if a == "--" {
			sections = append(sections, []string{})
			continue
		}
		last := len(sections) - 1
		sections[last] = append(sections[last], a)
	}
	return sections
}

// ParseOptionPairs parses a flat "name value name value ..." token list
// into a map. An odd token count is an option parse error, per spec.md §7.
func ParseOptionPairs(tokens []string) (map[string]string, error) {
	if len(tokens)%2 != 0 {
		return nil, errors.E("cliargs: options section has an odd number of tokens")
	}
	opts := make(map[string]string, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		opts[tokens[i]] = tokens[i+1]
	}
	return opts, nil
}

// Int looks up name in opts, returning def if absent.
func Int(opts map[string]string, name string, def int) (int, error) {
	v, ok := opts[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.E(err, "cliargs: option", name, "expects an integer, got", v)
	}
	return n, nil
}

// Float looks up name in opts, returning def if absent.
func Float(opts map[string]string, name string, def float64) (float64, error) {
	v, ok := opts[name]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.E(err, "cliargs: option", name, "expects a number, got", v)
	}
	return f, nil
}

// String looks up name in opts, returning def if absent.
func String(opts map[string]string, name, def string) string {
	if v, ok := opts[name]; ok {
		return v
	}
	return def
}

// Bool parses opts[name] as a literal "True"/"False" string, per spec.md
// §6.6's write-orig-mapq/write-precise-mapq convention. Absent yields def.
func Bool(opts map[string]string, name string, def bool) (bool, error) {
	v, ok := opts[name]
	if !ok {
		return def, nil
	}
	switch v {
	case "True":
		return true, nil
	case "False":
		return false, nil
	default:
		return false, errors.E("cliargs: option", name, "expects True or False, got", v)
	}
}
