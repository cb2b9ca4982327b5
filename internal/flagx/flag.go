// Package flagx lets several independent flag sets share one command line.
// Each consumer filters os.Args down to the flags it owns before parsing, so
// unknown flags of other consumers never trip flag.ContinueOnError.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps only the allowed flags from args, together with their
// values. Both "-name value" and "-name=value" forms are recognised, and a
// double-dash spelling ("--name") matches an allowed "-name".
//
// A token that starts with "-" is never consumed as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[canonical(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		if _, ok := allowed[canonical(name)]; !ok {
			continue
		}
		filtered = append(filtered, arg)

		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

func canonical(name string) string {
	return "-" + strings.TrimLeft(name, "-")
}

// ConfigPath returns the JSON config file named by -c or -config in args,
// or "" when neither is present. When both appear the last one wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
