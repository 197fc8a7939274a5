package domain

import "strings"

const DefaultSlugLength = 50

// Slugify lowercases text, collapses every run of characters outside
// [a-z0-9] into one hyphen, trims hyphens at both ends and truncates the
// result to maxLength bytes.
func Slugify(text string, maxLength int) string {
	var b strings.Builder
	b.Grow(len(text))

	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if maxLength >= 0 && len(slug) > maxLength {
		slug = slug[:maxLength]
	}
	return slug
}
