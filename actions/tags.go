package actions

import (
	"context"
	"strings"
	"unicode"
)

type revalidationTagsContextKey struct{}

// WithRevalidationTags attaches additional tags to revalidate after the next
// successful action run with ctx.
func WithRevalidationTags(ctx context.Context, tags ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(tags) == 0 {
		return ctx
	}

	combined := append(revalidationTagsFromContext(ctx), tags...)
	combined = normalizeTags(combined)
	if len(combined) == 0 {
		return ctx
	}

	return context.WithValue(ctx, revalidationTagsContextKey{}, combined)
}

func revalidationTagsFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if tags, ok := ctx.Value(revalidationTagsContextKey{}).([]string); ok {
		return append([]string(nil), tags...)
	}
	return nil
}

// normalizeTags kebab-cases every tag and drops empties and duplicates,
// keeping first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = toKebab(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// toKebab converts s to kebab-case, so "CleaningJobs", "cleaning_jobs" and
// "cleaning jobs" all name the "cleaning-jobs" tag.
func toKebab(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	lastDash := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case unicode.IsUpper(r):
			if b.Len() > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if (unicode.IsLower(prev) || unicode.IsDigit(prev) || (nextLower && unicode.IsUpper(prev))) && !lastDash {
					b.WriteByte('-')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			lastDash = false

		case unicode.IsLower(r), unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false

		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
