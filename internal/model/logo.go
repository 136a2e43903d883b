package model

import (
	"net/url"
	"strings"
)

// DefaultLogoBaseURL is the storage bucket prefix logo file names resolve against.
const DefaultLogoBaseURL = "https://firebasestorage.googleapis.com/v0/b/ai-tools-data-b2b7b.firebasestorage.app/o/ai_logos%2F"

// DefaultLogoSuffix is appended after the encoded file name.
const DefaultLogoSuffix = "?alt=media"

// LogoConfig describes how logo file names become URLs.
type LogoConfig struct {
	BaseURL string
	Suffix  string
}

// DefaultLogoConfig returns the storage bucket the catalog was published with.
func DefaultLogoConfig() LogoConfig {
	return LogoConfig{
		BaseURL: DefaultLogoBaseURL,
		Suffix:  DefaultLogoSuffix,
	}
}

// ResolveLogoURL derives a logo URL from a file name or a direct image URL.
// A non-blank file name wins over the image URL; with neither it returns nil.
func ResolveLogoURL(fileName, imageURL string, cfg LogoConfig) *string {
	if strings.TrimSpace(fileName) != "" {
		u := cfg.BaseURL + encodeURIComponent(fileName) + cfg.Suffix
		return &u
	}
	if strings.TrimSpace(imageURL) != "" {
		u := imageURL
		return &u
	}
	return nil
}

// WithLogo returns the tool with LogoURL derived from its logo fields.
func (t Tool) WithLogo(cfg LogoConfig) Tool {
	t.LogoURL = ResolveLogoURL(t.LogoFileName, t.ImageURL, cfg)
	return t
}

// encodeURIComponent percent-encodes everything except the unreserved marks
// browsers leave alone in encodeURIComponent.
func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	for _, r := range []string{"!", "'", "(", ")", "*"} {
		escaped = strings.ReplaceAll(escaped, url.QueryEscape(r), r)
	}
	return escaped
}
