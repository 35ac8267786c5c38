package schemas

import (
	"fmt"
	"strconv"
	"strings"
)

// UnspecifiedSKU marks a task that targets a listing by context instead of by SKU.
const UnspecifiedSKU = "UNSPECIFIED"

// Product is one row of product data as loaded from JSON or CSV.
type Product map[string]interface{}

// String returns field as trimmed text; numbers are formatted without exponent.
func (p Product) String(field string) string {
	switch v := p[field].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// SKU returns the product's SKU or UnspecifiedSKU.
func (p Product) SKU() string {
	if sku := p.String("sku"); sku != "" {
		return sku
	}
	return UnspecifiedSKU
}

// IsBlank reports whether every field is empty.
func (p Product) IsBlank() bool {
	for k := range p {
		if p.String(k) != "" {
			return false
		}
	}
	return true
}

// ListingTask is one unit of marketplace work.
type ListingTask struct {
	SKU string `json:"sku"`
	// Updates is set for edit tasks.
	Updates map[string]interface{} `json:"updates,omitempty"`
	// Product is set for new listing tasks.
	Product Product `json:"product,omitempty"`
}

// HasSKU reports whether the task names a concrete SKU.
func (t ListingTask) HasSKU() bool {
	return t.SKU != "" && t.SKU != UnspecifiedSKU
}

// Credentials log a user into a marketplace.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
