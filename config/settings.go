package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/anisan-cli/anistream/key"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Error reports a deployment defect: a base URL or credential the
// requested operation depends on is not configured. It is never retried.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration: %s is not set", e.Key)
	}
	return fmt.Sprintf("configuration: %s %s", e.Key, e.Reason)
}

// IsError reports whether err carries a configuration error.
func IsError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}

// Settings is the explicit snapshot of everything the core needs. It is
// built once and handed to adapter and handler constructors.
type Settings struct {
	Listen string

	ProxyBaseURL string

	EpisodeMappingBaseURL string
	EpisodeMappingTarget  string
	// PrimaryExclusions lists show ids whose direct episode lookup is known
	// to be wrong upstream and must go straight to the search/match fallback.
	PrimaryExclusions []string

	StreamingSourceBaseURL      string
	StreamingSourceAlternateURL string
	StreamingSourceServer       string
	TLSFingerprint              bool

	SessionProviderBaseURL string
	SessionFast            bool

	DirectBaseURL string

	DefaultTimeout      time.Duration
	LargePayloadTimeout time.Duration
	MaxRetries          int
	BaseDelay           time.Duration

	BulkDelay   time.Duration
	BulkMaxPost int
	BulkMaxGet  int
}

// Load snapshots the viper state into Settings. Setup must have been called.
func Load() *Settings {
	ms := func(k string) time.Duration {
		return time.Duration(viper.GetInt(k)) * time.Millisecond
	}

	s := &Settings{
		Listen:                      viper.GetString(key.ServerListen),
		ProxyBaseURL:                strings.TrimSuffix(viper.GetString(key.ProxyBaseURL), "/"),
		EpisodeMappingBaseURL:       trimBase(viper.GetString(key.MetaBaseURL)),
		EpisodeMappingTarget:        viper.GetString(key.MetaTarget),
		PrimaryExclusions:           lo.Compact(viper.GetStringSlice(key.MetaSkipPrimary)),
		StreamingSourceBaseURL:      trimBase(viper.GetString(key.LegacyBaseURL)),
		StreamingSourceAlternateURL: trimBase(viper.GetString(key.LegacyAlternateURL)),
		StreamingSourceServer:       viper.GetString(key.LegacyServer),
		TLSFingerprint:              viper.GetBool(key.LegacyTLSFingerprint),
		SessionProviderBaseURL:      trimBase(viper.GetString(key.SessionBaseURL)),
		SessionFast:                 viper.GetBool(key.SessionFast),
		DirectBaseURL:               trimBase(viper.GetString(key.DirectBaseURL)),
		DefaultTimeout:              ms(key.FetchTimeoutMs),
		LargePayloadTimeout:         ms(key.FetchLargeTimeoutMs),
		MaxRetries:                  viper.GetInt(key.FetchMaxRetries),
		BaseDelay:                   ms(key.FetchBaseDelayMs),
		BulkDelay:                   ms(key.BulkDelayMs),
		BulkMaxPost:                 viper.GetInt(key.BulkMaxPost),
		BulkMaxGet:                  viper.GetInt(key.BulkMaxGet),
	}

	if s.DefaultTimeout <= 0 {
		s.DefaultTimeout = 10 * time.Second
	}
	if s.LargePayloadTimeout <= 0 {
		s.LargePayloadTimeout = 15 * time.Second
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = 3
	}
	if s.BaseDelay < 0 {
		s.BaseDelay = time.Second
	}
	if s.BulkMaxPost <= 0 {
		s.BulkMaxPost = 10
	}
	if s.BulkMaxGet <= 0 {
		s.BulkMaxGet = 5
	}

	return s
}

// Validate checks the settings every operation of the server depends on.
// Provider base URLs are optional here: an unset one surfaces as an Error
// when that provider is actually used.
func (s *Settings) Validate() error {
	if s.ProxyBaseURL == "" {
		return &Error{Key: key.ProxyBaseURL}
	}

	u, err := url.Parse(s.ProxyBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &Error{Key: key.ProxyBaseURL, Reason: "must be an absolute URL"}
	}

	if s.EpisodeMappingBaseURL == "" && s.SessionProviderBaseURL == "" {
		return &Error{Key: key.MetaBaseURL, Reason: "or " + key.SessionBaseURL + " must be set"}
	}

	return nil
}

func trimBase(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), "/")
}
