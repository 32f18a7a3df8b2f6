package utils

import (
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)
	slugDashRuns     = regexp.MustCompile(`-{2,}`)
)

// Slugify normalizes a client name into a URL-safe portal key: lowercased,
// non-alphanumeric runs collapsed to single dashes, trimmed of leading and
// trailing dashes.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = slugDashRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// NormalizeCarInfo canonicalizes a free-text car description for distinct-car
// counting: surrounding whitespace removed and lowercased, so records that
// differ only in case or whitespace count as one car.
func NormalizeCarInfo(carInfo string) string {
	return strings.ToLower(strings.TrimSpace(carInfo))
}
