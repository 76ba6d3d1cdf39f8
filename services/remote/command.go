package remote

import "strings"

// Quote wraps a single argument in POSIX single quotes so the remote shell
// treats it as an opaque word. Embedded single quotes are rewritten as
// '\''. Externally supplied values (application names, paths, database
// credentials) must always pass through here; they are never interpolated
// into command text raw.
func Quote(arg string) string {
	if arg == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// Command builds a shell command line from a program name and its
// arguments, quoting every argument. The program name itself is expected to
// be a literal chosen by the caller, not user input.
func Command(program string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, program)
	for _, arg := range args {
		parts = append(parts, Quote(arg))
	}
	return strings.Join(parts, " ")
}
