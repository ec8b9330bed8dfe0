// Package sections splits running-log documents into dated UPDATE sections.
package sections

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"DocDigest/internal/domain"
)

// markerExpr matches "--- UPDATE 2024-03-15 ---". The date group is captured
// loosely so malformed dates are reported instead of silently skipped.
var markerExpr = regexp.MustCompile(`---\s*UPDATE\s+(\S+?)\s*---`)

// Parse returns every section of text in document order.
// A single malformed marker date rejects the whole document.
func Parse(text string) ([]domain.DocumentSection, error) {
	matches := markerExpr.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	result := make([]domain.DocumentSection, 0, len(matches))
	for i, m := range matches {
		rawDate := text[m[2]:m[3]]
		date, err := time.Parse(domain.DateLayout, rawDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %q (expected YYYY-MM-DD)", domain.ErrMalformedSectionDate, rawDate)
		}

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		result = append(result, domain.DocumentSection{
			Date:       date,
			Content:    strings.TrimSpace(text[m[1]:end]),
			RawContent: text[m[0]:end],
		})
	}

	return result, nil
}

// Latest returns the section with the maximum date. Sections sharing the
// maximum date resolve to the first one in document order. The boolean is
// false when the text holds no sections at all.
func Latest(text string) (domain.DocumentSection, bool, error) {
	all, err := Parse(text)
	if err != nil {
		return domain.DocumentSection{}, false, err
	}
	if len(all) == 0 {
		return domain.DocumentSection{}, false, nil
	}

	latest := all[0]
	for _, section := range all[1:] {
		if section.Date.After(latest.Date) {
			latest = section
		}
	}
	return latest, true, nil
}
