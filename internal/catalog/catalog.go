// Package catalog loads product data and turns it into marketplace tasks.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

// MandatoryFields must be present on every product for a new listing.
var MandatoryFields = []string{"brand", "category", "description", "price", "sku", "title"}

var (
	ErrNoDataFile       = errors.New("product data file path is required for this operation")
	ErrUnsupportedFile  = errors.New("only JSON or CSV product data files are supported")
	ErrNoUsableRows     = errors.New("provided data file has no usable rows")
	ErrMissingMandatory = errors.New("product missing mandatory fields")
)

// Load reads products from a .json (object or array) or .csv file. In strict mode
// every product must carry MandatoryFields; otherwise blank rows are dropped and at
// least one row must remain.
func Load(path string, strict bool) ([]schemas.Product, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrNoDataFile
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("product data file does not exist: %s", path)
		}
		return nil, err
	}
	defer f.Close()

	var products []schemas.Product
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		products, err = decodeJSON(f)
	case ".csv":
		products, err = decodeCSV(f)
	default:
		return nil, ErrUnsupportedFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strict {
		for i, p := range products {
			if missing := MissingFields(p); len(missing) > 0 {
				return nil, fmt.Errorf("%w: row %d (sku %s) lacks %v", ErrMissingMandatory, i+1, p.SKU(), missing)
			}
		}
		return products, nil
	}

	kept := products[:0]
	for _, p := range products {
		if !p.IsBlank() {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoUsableRows
	}
	return kept, nil
}

// MissingFields lists the mandatory keys p lacks.
func MissingFields(p schemas.Product) []string {
	var missing []string
	for _, f := range MandatoryFields {
		if _, ok := p[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// LoadForOperation loads the data file for op. Failures are logged and yield no
// products; an edit can still proceed from the command alone.
func LoadForOperation(op schemas.Operation, path string, logger *zap.Logger) []schemas.Product {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	products, err := Load(path, op == schemas.OperationNewListing)
	if err != nil {
		logger.Warn("Could not load product data.", zap.String("path", path), zap.Error(err))
		return nil
	}
	return products
}

func decodeJSON(r io.Reader) ([]schemas.Product, error) {
	var raw interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case map[string]interface{}:
		return []schemas.Product{v}, nil
	case []interface{}:
		products := make([]schemas.Product, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("item %d is not an object", i)
			}
			products = append(products, obj)
		}
		return products, nil
	default:
		return nil, fmt.Errorf("expected an object or an array of objects")
	}
}

func decodeCSV(r io.Reader) ([]schemas.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	products := make([]schemas.Product, 0, len(records)-1)
	for _, rec := range records[1:] {
		p := schemas.Product{}
		for i, col := range header {
			if i < len(rec) {
				p[col] = rec[i]
			} else {
				p[col] = ""
			}
		}
		products = append(products, p)
	}
	return products, nil
}

// SKUs returns the distinct concrete SKUs of tasks in first-seen order.
func SKUs(tasks []schemas.ListingTask) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tasks {
		if t.HasSKU() && !seen[t.SKU] {
			seen[t.SKU] = true
			out = append(out, t.SKU)
		}
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
