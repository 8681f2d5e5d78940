// Package lead finds the structured lead marker the chat model appends to a
// reply once the visitor has shared contact details, e.g.
//
//	[LEAD_CAPTURED: name="Jane", phone="+15551234567", service="Deep Cleaning"]
package lead

import (
	"regexp"
	"strings"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

var (
	markerRe   = regexp.MustCompile(`\[LEAD_CAPTURED:([^\]]+)\]`)
	nameRe     = attrRe("name")
	phoneRe    = attrRe("phone")
	emailRe    = attrRe("email")
	serviceRe  = attrRe("service")
	estimateRe = attrRe("estimate")
)

func attrRe(key string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + key + `="([^"]+)"`)
}

// Extract reads the first marker in text. ok is false when there is none.
// Attributes that are missing or empty stay empty.
func Extract(text string) (info domain.LeadInfo, ok bool) {
	m := markerRe.FindStringSubmatch(text)
	if m == nil {
		return domain.LeadInfo{}, false
	}
	body := m[1]
	return domain.LeadInfo{
		Name:     attr(nameRe, body),
		Phone:    attr(phoneRe, body),
		Email:    attr(emailRe, body),
		Service:  attr(serviceRe, body),
		Estimate: attr(estimateRe, body),
	}, true
}

// Strip removes every marker from text and trims the result. Nothing else in
// the text is touched.
func Strip(text string) string {
	return strings.TrimSpace(markerRe.ReplaceAllString(text, ""))
}

func attr(re *regexp.Regexp, body string) string {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
