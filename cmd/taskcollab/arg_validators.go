package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// positional requires exactly the named arguments, in order.
func positional(names ...string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != len(names) {
			return missingArgs(names)
		}
		return nil
	}
}

// positionalAtLeast requires the named arguments; the last one may repeat or
// span several words.
func positionalAtLeast(names ...string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < len(names) {
			return missingArgs(names)
		}
		return nil
	}
}

func missingArgs(names []string) error {
	if len(names) == 1 {
		return fmt.Errorf("%s is required", names[0])
	}
	last := len(names) - 1
	return fmt.Errorf("%s and %s are required", strings.Join(names[:last], ", "), names[last])
}
