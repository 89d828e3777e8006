// Package flagx contains helpers for parsing a subset of the command line
// without stepping on flags owned by other components.
package flagx

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FilterArgs keeps only the flags named in allowedFlags, together with their
// values. Both "-f value" and "-f=value" forms are recognised; a following
// token that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// JsonConfigFlags returns the config file path given with -c or -config, or
// an empty string when neither is present.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "path to config file")
	fs.StringVar(&config, "c", "", "path to config file (short)")
	_ = fs.Parse(args)

	return config
}

// seconds is a flag.Value that reads a whole number of seconds into a
// time.Duration.
type seconds struct {
	d *time.Duration
}

func (s seconds) String() string {
	if s.d == nil {
		return "0"
	}
	return strconv.Itoa(int(s.d.Seconds()))
}

func (s seconds) Set(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid number of seconds %q", v)
	}
	if n < 0 {
		return fmt.Errorf("negative number of seconds %q", v)
	}
	*s.d = time.Duration(n) * time.Second
	return nil
}

// SecondsVar defines a flag on fs that is given in seconds and stored in p.
// The current value of p is the default.
func SecondsVar(fs *flag.FlagSet, p *time.Duration, name, usage string) {
	fs.Var(seconds{d: p}, name, usage)
}
