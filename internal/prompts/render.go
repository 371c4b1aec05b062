package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// renderPositional substitutes each bare {} placeholder with the next
// argument, in order. Unfilled placeholders are an error; surplus arguments
// are tolerated.
func renderPositional(tmpl string, args ...string) (string, error) {
	var b strings.Builder
	rest := tmpl
	used := 0
	for {
		idx := strings.Index(rest, "{}")
		if idx < 0 {
			break
		}
		if used >= len(args) {
			return "", fmt.Errorf("template needs more than %d arguments", len(args))
		}
		b.WriteString(rest[:idx])
		b.WriteString(args[used])
		rest = rest[idx+2:]
		used++
	}
	b.WriteString(rest)
	return b.String(), nil
}

// renderNamed substitutes {key} placeholders. When the template carries none
// of the given keys it falls back to positional substitution with the values
// in sorted key order.
func renderNamed(tmpl string, values map[string]string) (string, error) {
	anyNamed := false
	for key := range values {
		if strings.Contains(tmpl, "{"+key+"}") {
			anyNamed = true
			break
		}
	}
	if !anyNamed {
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		args := make([]string, 0, len(keys))
		for _, key := range keys {
			args = append(args, values[key])
		}
		return renderPositional(tmpl, args...)
	}

	out := tmpl
	for key, value := range values {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out, nil
}
