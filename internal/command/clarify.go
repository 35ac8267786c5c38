package command

import (
	"regexp"
	"strings"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

// ClarificationNote is recorded when a follow-up answer filled in a descriptor.
const ClarificationNote = "User follow-up clarification applied."

var skuLikeRegex = regexp.MustCompile(`^[A-Za-z]{1,6}[A-Za-z0-9_-]*\d+[A-Za-z0-9_-]*$`)

// categoryNouns mark an identifier as a product category rather than a title.
var categoryNouns = []string{"ring", "shirt", "shoe", "watch", "dress"}

// NeedsClarification reports whether an edit has nothing to act on: no product rows
// were loaded and the descriptor names no SKU, update, or filter.
func NeedsClarification(desc schemas.WorkflowDescriptor, productsLoaded int) bool {
	if !desc.Operation.IsEdit() || productsLoaded > 0 {
		return false
	}
	return desc.IsEmpty()
}

// ApplyClarification merges a follow-up answer into a copy of desc. identifier may
// be a SKU, a category, or a product title; field and value name one update.
func ApplyClarification(desc schemas.WorkflowDescriptor, identifier, field, value string) schemas.WorkflowDescriptor {
	merged := schemas.NewWorkflowDescriptor(desc.Operation)
	for k, v := range desc.Updates {
		merged.Updates[k] = v
	}
	for k, v := range desc.Filters {
		merged.Filters[k] = v
	}
	merged.SKU = desc.SKU
	merged.Notes = desc.Notes

	field = strings.ToLower(strings.TrimSpace(field))
	value = strings.TrimSpace(value)
	if field != "" && value != "" {
		merged.Updates[field] = value
	}

	if identifier = strings.TrimSpace(identifier); identifier != "" {
		switch {
		case skuLikeRegex.MatchString(identifier):
			merged.SKU = identifier
		case isCategory(identifier):
			setDefault(merged.Filters, "category", identifier)
		default:
			setDefault(merged.Filters, "title", identifier)
		}
	}

	if merged.Notes == "" {
		merged.Notes = ClarificationNote
	}
	merged.Normalize()
	return merged
}

func isCategory(identifier string) bool {
	lower := strings.ToLower(identifier)
	for _, noun := range categoryNouns {
		if strings.Contains(lower, noun) {
			return true
		}
	}
	return false
}

func setDefault(m map[string]interface{}, key string, value interface{}) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
