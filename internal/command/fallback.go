package command

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

// FallbackNotePrefix marks descriptors produced without the decision model.
const FallbackNotePrefix = "fallback parser used: "

var (
	wordRegex = regexp.MustCompile(`[a-z0-9]+`)

	// "SKU123", "sku-44A"
	gluedSKURegex = regexp.MustCompile(`(?i)\b(sku[a-z0-9_-]*\d[a-z0-9_-]*)\b`)
	// "sku: AB12", "SKU #77", "sku AB-3"
	separatedSKURegex = regexp.MustCompile(`(?i)\bsku\b\s*[:#=-]?\s*([a-z0-9][a-z0-9_-]*)`)

	titleUpdateRegex = regexp.MustCompile(`(?i)\b(?:update|change|set)\s+(?:the\s+)?(?:product\s+)?(?:name|title)\b.*?\bto\s+(.+)$`)
	// A following field clause ends an unquoted title: "to New Name and price to 500".
	titleTailRegex   = regexp.MustCompile(`(?i)\s*(?:,|;|\band\b)\s*(?:also\s+)?(?:(?:set|change|update)\s+)?(?:the\s+)?(?:price|stock|quantity|description|brand|category|mrp|discount)\b.*$`)
	priceUpdateRegex = regexp.MustCompile(`(?i)\bprice\b.*?\bto\s+(?:rs\.?\s*|inr\s*|usd\s*|\$|₹)?(\d[\d,]*(?:\.\d+)?)`)
	categoryRegex    = regexp.MustCompile(`(?i)\b(?:of|for|in)\s+([a-z][a-z\s-]*?)\s+(?:to|with|at)\b`)
	quotedRegex      = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)
)

var (
	newTokens     = map[string]bool{"new": true, "create": true, "add": true}
	listingTokens = map[string]bool{"listing": true, "listings": true, "list": true, "product": true, "products": true, "item": true, "items": true}
	bulkTokens    = map[string]bool{"bulk": true, "all": true, "every": true, "everything": true}
	intentTokens  = map[string]bool{"price": true, "update": true, "change": true, "set": true}

	// Words that can follow a separated "sku" marker without being an identifier.
	skuStopwords = map[string]bool{"to": true, "of": true, "for": true, "in": true, "and": true, "with": true, "price": true, "title": true, "name": true}
	// Leading determiners trimmed from category phrases.
	categoryDeterminers = []string{"all ", "the ", "my ", "our ", "every "}
)

// ParseFallback converts a free-text command into a WorkflowDescriptor with keyword
// and pattern rules only. It is pure: the same input always yields an equal result.
func ParseFallback(command string) schemas.WorkflowDescriptor {
	desc := schemas.NewWorkflowDescriptor(schemas.OperationEditListing)
	desc.Notes = FallbackNotePrefix + command

	text := strings.TrimSpace(command)
	// Quoted spans are listing content, not instructions.
	words := tokenSet(quotedRegex.ReplaceAllString(text, " "))

	switch {
	case containsAny(words, newTokens) && containsAny(words, listingTokens):
		desc.Operation = schemas.OperationNewListing
	case containsAny(words, bulkTokens):
		desc.Operation = schemas.OperationBulkUpdate
	}

	desc.SKU = extractSKU(text)

	titleFound := false
	if m := titleUpdateRegex.FindStringSubmatch(text); m != nil {
		if title := cleanValue(titleTailRegex.ReplaceAllString(m[1], "")); title != "" {
			desc.Updates["title"] = title
			titleFound = true
		}
	}

	if m := priceUpdateRegex.FindStringSubmatch(text); m != nil {
		if price, ok := parseNumber(m[1]); ok {
			desc.Updates["price"] = price
		}
	}

	if containsAny(words, intentTokens) {
		if category := extractCategory(text); category != "" {
			desc.Filters["category"] = category
		}
	}

	quoted := quotedSpans(text)
	switch {
	case len(quoted) >= 2 && titleFound:
		desc.Filters["title"] = quoted[0]
		desc.Updates["title"] = quoted[len(quoted)-1]
	case len(quoted) == 1 && !titleFound:
		desc.Filters["title"] = quoted[0]
	}

	return desc
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range wordRegex.FindAllString(strings.ToLower(text), -1) {
		set[w] = true
	}
	return set
}

func containsAny(words, vocabulary map[string]bool) bool {
	for w := range vocabulary {
		if words[w] {
			return true
		}
	}
	return false
}

func extractSKU(text string) string {
	if m := gluedSKURegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	for _, m := range separatedSKURegex.FindAllStringSubmatch(text, -1) {
		if !skuStopwords[strings.ToLower(m[1])] {
			return m[1]
		}
	}
	return ""
}

func extractCategory(text string) string {
	for _, m := range categoryRegex.FindAllStringSubmatch(text, -1) {
		phrase := strings.ToLower(strings.Join(strings.Fields(m[1]), " "))
		for _, d := range categoryDeterminers {
			phrase = strings.TrimPrefix(phrase, d)
		}
		if phrase == "" || phrase == "price" || bulkTokens[phrase] || strings.Contains(phrase, "sku") {
			continue
		}
		return phrase
	}
	return ""
}

// cleanValue trims whitespace, a trailing period, and one pair of surrounding quotes.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, ".")
	v = strings.TrimSpace(v)
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}} {
		if len(v) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(v, pair[0]) && strings.HasSuffix(v, pair[1]) {
			v = strings.TrimSpace(v[len(pair[0]) : len(v)-len(pair[1])])
			break
		}
	}
	return v
}

// parseNumber returns an int for integral literals and a float64 otherwise.
func parseNumber(literal string) (interface{}, bool) {
	literal = strings.ReplaceAll(literal, ",", "")
	if !strings.Contains(literal, ".") {
		n, err := strconv.Atoi(literal)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

func quotedSpans(text string) []string {
	var spans []string
	for _, m := range quotedRegex.FindAllStringSubmatch(text, -1) {
		span := m[1]
		if span == "" {
			span = m[2]
		}
		if span = strings.TrimSpace(span); span != "" {
			spans = append(spans, span)
		}
	}
	return spans
}
