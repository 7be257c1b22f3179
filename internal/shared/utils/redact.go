package utils

import (
	"regexp"
	"sort"
)

// RedactedValue replaces secret values in anything that is persisted or logged.
const RedactedValue = "***"

// Channel aggregates (<CHANNEL>_CONFIG) carry the whole decoded credential as JSON.
var sensitiveKey = regexp.MustCompile(`(?i)SECRET|PASSWORD|TOKEN|KEY|CREDENTIAL|PRIVATE|_CONFIG$`)

// IsSensitiveKey reports whether an environment variable name looks like it holds a secret.
func IsSensitiveKey(key string) bool {
	return sensitiveKey.MatchString(key)
}

// RedactVariables returns a copy of vars with sensitive values replaced.
func RedactVariables(vars map[string]string) map[string]string {
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		if IsSensitiveKey(k) {
			out[k] = RedactedValue
			continue
		}
		out[k] = v
	}
	return out
}

// SortedKeys returns the variable names in lexical order, for logging.
func SortedKeys(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
