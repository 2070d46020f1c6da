// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/style"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.ServerListen, ":8080", "Address the HTTP server listens on")
	register(key.ProxyBaseURL, "", "Public base URL of this service.\nEvery rewritten playlist reference points at <base>/manifest")

	register(key.MetaBaseURL, "", "Base URL of the episode-mapping metadata API")
	register(key.MetaTarget, "gogoanime", "Provider the metadata API maps episodes onto")
	register(key.MetaSkipPrimary, []string{"21"}, "Show ids that skip the direct episode lookup and go straight to the search/match fallback.\nUpstream data-quality workaround, review periodically")

	register(key.LegacyBaseURL, "", "Base URL of the scraping-style source API")
	register(key.LegacyAlternateURL, "", "Alternate upstream with the same contract, tried when the primary fails")
	register(key.LegacyServer, "", "Streaming server hint passed to the scraping-style API. Empty lets the upstream choose")
	register(key.LegacyTLSFingerprint, true, "Present a browser TLS fingerprint to the scraping-style upstream")

	register(key.SessionBaseURL, "", "Base URL of the session-based source API")
	register(key.SessionFast, true, "Request the fast source variant that skips computing download links")

	register(key.DirectBaseURL, "", "Base URL of the single-provider API. Empty disables the provider")

	register(key.FetchTimeoutMs, 10000, "Per-attempt deadline for upstream API calls, in milliseconds")
	register(key.FetchLargeTimeoutMs, 15000, "Per-attempt deadline for large payloads such as playlists and segments, in milliseconds")
	register(key.FetchMaxRetries, 3, "Maximum number of attempts for a single upstream fetch")
	register(key.FetchBaseDelayMs, 1000, "Initial backoff delay, doubled after every failed attempt, in milliseconds")

	register(key.BulkDelayMs, 500, "Delay between shows during bulk episode listing, in milliseconds.\nShows are always processed one at a time")
	register(key.BulkMaxPost, 10, "Maximum number of show ids accepted by a bulk POST")
	register(key.BulkMaxGet, 5, "Maximum number of show ids accepted by a bulk GET")

	register(key.LogsWrite, false, "Write logs to a dated file in the logs directory in addition to stderr")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(style.Purple),
	"blue":     style.Fg(style.Blue),
	"cyan":     style.Fg(style.Cyan),
	"wrap":     func(s string) string { return wordwrap.String(s, 72) },
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(style.Green)(b)
			}
			return style.Fg(style.Red)(b)
		case string:
			return style.Fg(style.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint (wrap .Description) }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
