package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

func TestNeedsClarification(t *testing.T) {
	empty := schemas.NewWorkflowDescriptor(schemas.OperationEditListing)
	assert.True(t, NeedsClarification(empty, 0))
	assert.False(t, NeedsClarification(empty, 3), "product rows identify the targets")

	withSKU := empty
	withSKU.SKU = "SKU1"
	assert.False(t, NeedsClarification(withSKU, 0))

	newListing := schemas.NewWorkflowDescriptor(schemas.OperationNewListing)
	assert.False(t, NeedsClarification(newListing, 0))

	bulk := schemas.NewWorkflowDescriptor(schemas.OperationBulkUpdate)
	assert.True(t, NeedsClarification(bulk, 0))
}

func TestApplyClarification(t *testing.T) {
	testCases := []struct {
		name       string
		identifier string
		field      string
		value      string
		wantSKU    string
		wantFilter map[string]interface{}
		wantUpdate map[string]interface{}
	}{
		{
			name:       "sku-like identifier",
			identifier: "SKU123",
			field:      "Price",
			value:      "799",
			wantSKU:    "SKU123",
			wantFilter: map[string]interface{}{},
			wantUpdate: map[string]interface{}{"price": "799"},
		},
		{
			name:       "category noun",
			identifier: "Rose Gold Ring",
			field:      "stock",
			value:      "5",
			wantFilter: map[string]interface{}{"category": "Rose Gold Ring"},
			wantUpdate: map[string]interface{}{"stock": "5"},
		},
		{
			name:       "plain title",
			identifier: "Blue Denim Jacket",
			wantFilter: map[string]interface{}{"title": "Blue Denim Jacket"},
			wantUpdate: map[string]interface{}{},
		},
		{
			name:       "nothing given",
			wantFilter: map[string]interface{}{},
			wantUpdate: map[string]interface{}{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			desc := schemas.NewWorkflowDescriptor(schemas.OperationEditListing)
			got := ApplyClarification(desc, tc.identifier, tc.field, tc.value)

			assert.Equal(t, tc.wantSKU, got.SKU)
			assert.Equal(t, tc.wantFilter, got.Filters)
			assert.Equal(t, tc.wantUpdate, got.Updates)
			assert.Equal(t, ClarificationNote, got.Notes)
			assert.Empty(t, desc.Updates, "the input descriptor is not mutated")
		})
	}
}

func TestApplyClarification_KeepsExistingFilter(t *testing.T) {
	desc := schemas.NewWorkflowDescriptor(schemas.OperationEditListing)
	desc.Filters["category"] = "rings"
	desc.Notes = "fallback parser used: x"

	got := ApplyClarification(desc, "silver ring", "price", "10")
	assert.Equal(t, "rings", got.Filters["category"])
	assert.Equal(t, "fallback parser used: x", got.Notes)
}
