package schemas

import "strings"

// Operation is the kind of listing work a user command asks for.
type Operation string

const (
	OperationNewListing  Operation = "new_listing"
	OperationEditListing Operation = "edit_listing"
	OperationBulkUpdate  Operation = "bulk_update"
)

// ParseOperation returns the operation named by s and whether it was recognized.
func ParseOperation(s string) (Operation, bool) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OperationNewListing, OperationEditListing, OperationBulkUpdate:
		return op, true
	}
	return "", false
}

// IsEdit reports whether the operation modifies existing listings.
func (o Operation) IsEdit() bool {
	return o == OperationEditListing || o == OperationBulkUpdate
}

// WorkflowDescriptor is the structured form of a free-text user command.
type WorkflowDescriptor struct {
	Operation Operation              `json:"operation"`
	Updates   map[string]interface{} `json:"updates"`
	Filters   map[string]interface{} `json:"filters"`
	SKU       string                 `json:"sku,omitempty"`
	Notes     string                 `json:"notes"`
}

// NewWorkflowDescriptor returns a descriptor with empty, non-nil maps.
func NewWorkflowDescriptor(op Operation) WorkflowDescriptor {
	return WorkflowDescriptor{
		Operation: op,
		Updates:   map[string]interface{}{},
		Filters:   map[string]interface{}{},
	}
}

// Normalize fills in defaults so consumers never see nil maps or an empty operation.
func (w *WorkflowDescriptor) Normalize() {
	if w.Updates == nil {
		w.Updates = map[string]interface{}{}
	}
	if w.Filters == nil {
		w.Filters = map[string]interface{}{}
	}
	if op, ok := ParseOperation(string(w.Operation)); ok {
		w.Operation = op
	} else {
		w.Operation = OperationEditListing
	}
	w.SKU = strings.TrimSpace(w.SKU)
}

// IsEmpty reports whether the descriptor identifies nothing to change.
func (w WorkflowDescriptor) IsEmpty() bool {
	return w.SKU == "" && len(w.Updates) == 0 && len(w.Filters) == 0
}
