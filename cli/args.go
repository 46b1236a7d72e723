package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// splitArgs separates leading positional arguments from flags so that both
// "delete slug -yes" and "delete -yes slug" parse.
func splitArgs(args []string) (positional []string, flags []string) {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") && !isSignedNumber(arg) {
			flags = append(flags, arg)
			continue
		}
		if len(flags) > 0 && needsValue(flags[len(flags)-1]) {
			flags = append(flags, arg)
			continue
		}
		positional = append(positional, arg)
	}
	return positional, flags
}

var valueFlags = map[string]bool{"-tags": true, "--tags": true, "-tag": true, "--tag": true}

func needsValue(flagArg string) bool {
	return valueFlags[flagArg]
}

func isSignedNumber(arg string) bool {
	return arg == "-1" || arg == "+1"
}

func newFlagSet(out io.Writer, usage string) *flag.FlagSet {
	flagset := flag.NewFlagSet("", flag.ContinueOnError)
	flagset.SetOutput(out)
	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), "Usage:\n  "+usage)
		flagset.PrintDefaults()
	}
	return flagset
}

func requireSlug(flagset *flag.FlagSet, positional []string) (string, error) {
	if len(positional) != 1 || strings.TrimSpace(positional[0]) == "" {
		flagset.Usage()
		return "", fmt.Errorf("expected exactly one slug: %w", ErrUsage)
	}
	return strings.TrimSpace(positional[0]), nil
}
