package coreapi

import (
	"net/url"
	"strings"
)

// Param is a single field of a search fragment.
type Param struct {
	Field string
	Value string
}

// Search renders the CoreAPI search fragment, e.g.
// search:(email=a%40b.com,plan=basic). Fields with empty values are
// omitted; values are percent-encoded (space as %20, not +).
func Search(params ...Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.Value == "" {
			continue
		}
		parts = append(parts, p.Field+"="+escapeValue(p.Value))
	}
	if len(parts) == 0 {
		return ""
	}
	return "search:(" + strings.Join(parts, ",") + ")"
}

// With renders the relation-inclusion fragment, e.g. with:(subscriptions,domains).
func With(rels ...string) string {
	parts := make([]string, 0, len(rels))
	for _, r := range rels {
		if r == "" {
			continue
		}
		parts = append(parts, r)
	}
	if len(parts) == 0 {
		return ""
	}
	return "with:(" + strings.Join(parts, ",") + ")"
}

// RawQuery joins non-empty fragments into a raw query string.
func RawQuery(fragments ...string) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, "&")
}

func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
