package common

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// NewLogger builds the JSON stderr logger every command uses. quiet wins over
// level.
func NewLogger(level string, quiet bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if quiet {
		lvl = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

var markdownLinkPattern = regexp.MustCompile(`^\[([^\]]+)\]\([^)]*\)$`)

// SanitizeInput cleans a library name or id pasted from chat or markdown:
// surrounding quotes and backticks, a markdown link wrapper, and trailing
// punctuation are removed.
func SanitizeInput(raw string) string {
	cleaned := strings.TrimSpace(raw)

	// "[better-auth](https://...)" -> "better-auth"
	if m := markdownLinkPattern.FindStringSubmatch(cleaned); len(m) > 1 {
		cleaned = m[1]
	}

	cleaned = strings.Trim(cleaned, "`\"'")
	cleaned = strings.TrimRight(cleaned, ",;:")
	cleaned = strings.TrimSuffix(cleaned, ".")
	cleaned = strings.TrimLeft(cleaned, "([<")
	cleaned = strings.TrimRight(cleaned, ")]>")

	return strings.TrimSpace(cleaned)
}

// FilterFields keeps only the named top-level fields of v's JSON form. An
// empty list keeps everything.
func FilterFields(v interface{}, fieldsStr string) map[string]interface{} {
	full := structToMap(v)
	if strings.TrimSpace(fieldsStr) == "" {
		return full
	}

	include := make(map[string]bool)
	for _, f := range strings.Split(fieldsStr, ",") {
		if f = strings.TrimSpace(f); f != "" {
			include[f] = true
		}
	}

	filtered := make(map[string]interface{})
	for key, value := range full {
		if include[key] {
			filtered[key] = value
		}
	}
	return filtered
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(obj interface{}) map[string]interface{} {
	data, _ := json.Marshal(obj)
	var result map[string]interface{}
	_ = json.Unmarshal(data, &result)
	return result
}

// Marshal encodes v as "yaml" or "json" (indented).
func Marshal(format string, v interface{}) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml":
		return yaml.Marshal(v)
	case "json":
		return json.MarshalIndent(v, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
