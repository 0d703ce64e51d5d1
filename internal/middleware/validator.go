package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var (
	usernameRe = regexp.MustCompile(`^@?[a-zA-Z0-9._-]{1,64}$`)
	scanIDRe   = regexp.MustCompile(`^scan_[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
)

// ValidatePlatform checks if the platform name is in the allowed list
func ValidatePlatform(platform string) error {
	allowed := map[string]bool{
		"twitter":   true,
		"x":         true,
		"youtube":   true,
		"linkedin":  true,
		"instagram": true,
		"tiktok":    true,
	}

	if !allowed[strings.ToLower(platform)] {
		return fmt.Errorf("invalid platform: %s (allowed: twitter, x, youtube, linkedin, instagram, tiktok)", platform)
	}
	return nil
}

// ValidatePlatforms validates a platform list
func ValidatePlatforms(platforms []string) error {
	if len(platforms) == 0 {
		return fmt.Errorf("platforms cannot be empty")
	}
	for _, p := range platforms {
		if err := ValidatePlatform(p); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUsername validates handle format
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if !usernameRe.MatchString(username) {
		return fmt.Errorf("invalid username format (alphanumeric, dot, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateScanID validates scan ID format
func ValidateScanID(scanID string) error {
	if scanID == "" {
		return fmt.Errorf("scan ID cannot be empty")
	}

	if !scanIDRe.MatchString(scanID) {
		return fmt.Errorf("invalid scan ID format")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
