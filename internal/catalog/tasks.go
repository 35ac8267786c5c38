package catalog

import (
	"github.com/xkilldash9x/listpilot/api/schemas"
)

// identifierFields locate a listing; they are never sent as updates.
var identifierFields = map[string]bool{
	"sku":      true,
	"title":    true,
	"name":     true,
	"category": true,
	"brand":    true,
}

// BuildEditTasks plans one edit per product row. Row identifiers become target_*
// hints, the remaining row fields become updates, and the command's own updates win
// over both. Without products a single task carries the command's updates and
// filters.
func BuildEditTasks(products []schemas.Product, desc schemas.WorkflowDescriptor) []schemas.ListingTask {
	workflowSKU := desc.SKU
	if len(products) == 0 {
		updates := copyMap(desc.Updates)
		for _, k := range sortedKeys(desc.Filters) {
			if v := desc.Filters[k]; truthy(v) {
				updates["target_"+k] = v
			}
		}
		return []schemas.ListingTask{{SKU: orUnspecified(workflowSKU), Updates: updates}}
	}

	tasks := make([]schemas.ListingTask, 0, len(products))
	for _, row := range products {
		sku := row.String("sku")
		if sku == "" {
			sku = workflowSKU
		}

		combined := map[string]interface{}{}
		switch {
		case truthy(row["title"]):
			combined["target_title"] = row.String("title")
		case truthy(row["name"]):
			combined["target_title"] = row.String("name")
		}
		if truthy(row["category"]) {
			combined["target_category"] = row.String("category")
		}
		if truthy(row["brand"]) {
			combined["target_brand"] = row.String("brand")
		}
		for _, k := range sortedKeys(desc.Filters) {
			v := desc.Filters[k]
			if _, exists := combined["target_"+k]; truthy(v) && !exists {
				combined["target_"+k] = v
			}
		}
		for k, v := range row {
			if identifierFields[k] || v == nil || v == "" {
				continue
			}
			combined[k] = v
		}
		for k, v := range desc.Updates {
			combined[k] = v
		}

		tasks = append(tasks, schemas.ListingTask{SKU: orUnspecified(sku), Updates: combined})
	}
	return tasks
}

// BuildCreateTasks plans one new listing per product.
func BuildCreateTasks(products []schemas.Product) []schemas.ListingTask {
	tasks := make([]schemas.ListingTask, 0, len(products))
	for _, p := range products {
		tasks = append(tasks, schemas.ListingTask{SKU: p.SKU(), Product: p})
	}
	return tasks
}

// BuildTasks dispatches on the operation.
func BuildTasks(op schemas.Operation, products []schemas.Product, desc schemas.WorkflowDescriptor) []schemas.ListingTask {
	if op.IsEdit() {
		return BuildEditTasks(products, desc)
	}
	return BuildCreateTasks(products)
}

func orUnspecified(sku string) string {
	if sku == "" {
		return schemas.UnspecifiedSKU
	}
	return sku
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// truthy treats nil, empty strings, zero numbers, false, and empty collections as unset.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case map[string]interface{}:
		return len(t) > 0
	case []interface{}:
		return len(t) > 0
	default:
		return true
	}
}
