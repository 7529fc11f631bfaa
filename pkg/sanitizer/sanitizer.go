// Package sanitizer masks secrets and personal data in chat text before it
// leaves the process, and enforces a size limit on user messages.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sanitizer handles chat preprocessing and secret masking.
type Sanitizer struct {
	patterns []*regexp.Regexp
	maxSize  int
}

// Pattern definitions for secrets and personal data users paste into chat.
var defaultPatterns = []*regexp.Regexp{
	// Google API keys
	regexp.MustCompile(`AIza[0-9A-Za-z_\-]{30,}`),

	// API keys (generic patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?([a-zA-Z0-9_\-]{20,})['"]?`),
	regexp.MustCompile(`(?i)(secret[_-]?key|secretkey)\s*[:=]\s*['"]?([a-zA-Z0-9_\-]{20,})['"]?`),
	regexp.MustCompile(`\bsk-[a-zA-Z0-9_\-]{20,}`),

	// Authentication tokens
	regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_\-\.]+`),
	regexp.MustCompile(`(?i)(token|auth[_-]?token)\s*[:=]\s*['"]?([a-zA-Z0-9_\-\.]{20,})['"]?`),
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),

	// Passwords
	regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*['"]?([^\s'"]{4,})['"]?`),

	// AWS credentials
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),

	// Private keys
	regexp.MustCompile(`-----BEGIN\s+(RSA|DSA|EC|OPENSSH)?\s*PRIVATE KEY-----`),

	// Connection strings with credentials
	regexp.MustCompile(`(?i)(mongodb|mysql|postgres|postgresql|redis|amqp):\/\/[^@\s]+@[^\s]+`),

	// Payment data: IBANs and card numbers
	regexp.MustCompile(`\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){3,7}(?: ?[A-Z0-9]{1,4})?\b`),
	regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{1,4}\b`),

	// Email addresses (PII)
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
}

// New creates a new Sanitizer with default patterns.
func New(maxSize int) *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns,
		maxSize:  maxSize,
	}
}

// NewWithPatterns creates a Sanitizer with custom patterns.
func NewWithPatterns(maxSize int, patterns []*regexp.Regexp) *Sanitizer {
	return &Sanitizer{
		patterns: patterns,
		maxSize:  maxSize,
	}
}

// Sanitize trims msg, truncates it to the size limit on a rune boundary and
// masks secrets.
func (s *Sanitizer) Sanitize(msg string) string {
	msg = strings.TrimSpace(msg)

	if s.maxSize > 0 && len(msg) > s.maxSize {
		cut := s.maxSize
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}

	return s.Mask(msg)
}

// Mask replaces sensitive patterns in text without truncating it.
func (s *Sanitizer) Mask(text string) string {
	result := text

	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllStringFunc(result, maskValue)
	}

	return result
}

// maskValue creates a masked version of a matched secret.
func maskValue(match string) string {
	if len(match) <= 8 {
		return "[REDACTED]"
	}

	// Keep the field name of key=value pairs.
	if idx := strings.IndexAny(match, ":="); idx != -1 {
		return match[:idx+1] + "[REDACTED]"
	}

	if len(match) > 16 {
		return match[:4] + "****" + match[len(match)-4:]
	}

	return "[REDACTED]"
}

// IsEmpty checks if the message is empty or whitespace only.
func (s *Sanitizer) IsEmpty(msg string) bool {
	return strings.TrimSpace(msg) == ""
}

// IsTooLarge checks if the message exceeds the maximum size.
func (s *Sanitizer) IsTooLarge(msg string) bool {
	return s.maxSize > 0 && len(msg) > s.maxSize
}

// Stats describes what Sanitize changed.
type Stats struct {
	OriginalSize  int
	SanitizedSize int
	Truncated     bool
	SecretsFound  int
}

// SanitizeWithStats performs sanitization and returns statistics.
func (s *Sanitizer) SanitizeWithStats(msg string) (string, Stats) {
	stats := Stats{
		OriginalSize: len(msg),
		Truncated:    s.IsTooLarge(strings.TrimSpace(msg)),
	}

	for _, pattern := range s.patterns {
		stats.SecretsFound += len(pattern.FindAllString(msg, -1))
	}

	sanitized := s.Sanitize(msg)
	stats.SanitizedSize = len(sanitized)

	return sanitized, stats
}
