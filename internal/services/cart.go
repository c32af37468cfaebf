package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"table_order_backend/internal/models"
)

// maxLineQuantity bounds a single cart line.
const maxLineQuantity = 999

// CartEntry is one parsed cart line before catalog validation.
type CartEntry struct {
	MenuItemID int64
	Quantity   int
}

// ParseCart decodes an untrusted {"<menu item id>": quantity} document.
//
// Quantities may be JSON integers, fractional numbers (truncated toward zero),
// integer strings or booleans. Entries with non-positive quantities or
// non-numeric keys are dropped. Any other value shape rejects the whole cart
// with ErrValidation. Entries are returned sorted by menu item id, with
// duplicate ids summed.
func ParseCart(raw []byte) ([]CartEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: cart must be a JSON object of item id to quantity: %v", models.ErrValidation, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: cart must be a JSON object of item id to quantity", models.ErrValidation)
	}

	quantities := make(map[int64]int, len(doc))
	for key, value := range doc {
		qty, err := coerceQuantity(value)
		if err != nil {
			return nil, fmt.Errorf("%w: item %q: %v", models.ErrValidation, key, err)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil || id <= 0 || qty <= 0 {
			continue
		}
		quantities[id] += qty
		if quantities[id] > maxLineQuantity {
			return nil, fmt.Errorf("%w: item %d: quantity exceeds %d", models.ErrValidation, id, maxLineQuantity)
		}
	}

	entries := make([]CartEntry, 0, len(quantities))
	for id, qty := range quantities {
		entries = append(entries, CartEntry{MenuItemID: id, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].MenuItemID < entries[j].MenuItemID })
	return entries, nil
}

func coerceQuantity(value interface{}) (int, error) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return boundQuantity(float64(n))
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("quantity %s is not a number", v)
		}
		return boundQuantity(math.Trunc(f))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("quantity %q is not an integer", v)
		}
		return boundQuantity(float64(n))
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("quantity of type %T is not allowed", value)
	}
}

// boundQuantity keeps negative values (they are dropped later) and rejects
// values too large to be a real order.
func boundQuantity(f float64) (int, error) {
	if f > maxLineQuantity {
		return 0, fmt.Errorf("quantity exceeds %d", maxLineQuantity)
	}
	if f < 0 {
		return -1, nil
	}
	return int(f), nil
}
