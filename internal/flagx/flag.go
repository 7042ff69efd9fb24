// Package flagx contains helpers for picking individual flags out of the
// command line without owning the whole flag set.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the subset of args made of allowed flags and their
// values, preserving order.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.yaml
//  2. Flag and value combined with '=':      --config=conf.yaml
//
// A token starting with "-" is never consumed as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// LookupString extracts the value of a single string flag known under one or
// more names (e.g. "c" and "config"). The last occurrence wins. Missing or
// unparsable flags yield "".
func LookupString(args []string, names ...string) string {
	allowed := make([]string, 0, len(names)*2)
	for _, n := range names {
		allowed = append(allowed, "-"+n, "--"+n)
	}

	var value string
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}
	if err := fs.Parse(FilterArgs(args, allowed)); err != nil {
		return ""
	}
	return value
}

// ConfigFileFlag returns the config file path passed via -c or -config.
func ConfigFileFlag(args []string) string {
	return LookupString(args, "c", "config")
}

// EnvFileFlag returns the dotenv file path passed via -env.
func EnvFileFlag(args []string) string {
	return LookupString(args, "env")
}
