package infrastructure

import "strings"

// shellSpecialChars have meaning to a POSIX shell
const shellSpecialChars = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// secretFlags are yt-dlp options whose value must not reach the logs
var secretFlags = map[string]bool{
	"--cookies":  true,
	"--password": true,
	"--username": true,
}

// ShellEscape quotes a string so the logged command line can be pasted
// into a shell. exec.Command itself never needs this.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecialChars) {
		return s
	}
	// close quote, emit a double-quoted quote, reopen
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand renders binary and args as one loggable line.
// Values of credential flags are masked.
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(binary))
	for _, arg := range RedactArgs(args) {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}

// RedactArgs returns a copy of args with the value following any
// credential flag replaced
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if secretFlags[out[i]] {
			out[i+1] = "<redacted>"
			i++
		}
	}
	return out
}
