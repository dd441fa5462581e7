// Package flagx lets several loaders share os.Args without tripping over
// each other's flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the flags named in allowed together with their
// values. Both "-f value" and "-f=value" forms are recognised; a following
// argument that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowed []string) []string {
	names := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		names[f] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := names[name]; keep {
				out = append(out, arg)
			}
			continue
		}

		if _, keep := names[arg]; !keep {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// ConfigPath returns the JSON config file given with -c or -config, or ""
// when neither is present. When both appear the last one wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
