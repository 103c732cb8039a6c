package remote

import "strings"

// Quote wraps value in single quotes for a POSIX shell.
func Quote(value string) string {
	if value == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
