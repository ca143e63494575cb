package main

import (
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// flagQuery copies the named flags that carry a non-blank value into a query.
func flagQuery(cmd *cobra.Command, names ...string) url.Values {
	query := url.Values{}
	for _, name := range names {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if value := strings.TrimSpace(flag.Value.String()); value != "" {
			query.Set(name, value)
		}
	}
	return query
}

// splitCommaList splits "a, b,,c" into [a b c].
func splitCommaList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
