package docstore

import (
	"encoding/json"
	"strings"
)

// matchField reports whether the document's top-level field satisfies the
// operator against value. Used by the memory and redis stores, which filter
// client-side the way the original document API evaluated queries.
func matchField(doc Document, field string, op Operator, value any) bool {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(doc.Data, &body); err != nil {
		return false
	}
	raw, ok := body[field]
	if !ok {
		return false
	}

	if want, isNum := toFloat(value); isNum {
		var got float64
		if err := json.Unmarshal(raw, &got); err != nil {
			return false
		}
		return compareFloat(got, want, op)
	}
	if want, isStr := value.(string); isStr {
		var got string
		if err := json.Unmarshal(raw, &got); err != nil {
			return false
		}
		return compareString(got, want, op)
	}
	if want, isBool := value.(bool); isBool {
		var got bool
		if err := json.Unmarshal(raw, &got); err != nil {
			return false
		}
		switch op {
		case OpEqual:
			return got == want
		case OpNotEqual:
			return got != want
		}
		return false
	}
	return false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func compareFloat(got, want float64, op Operator) bool {
	switch op {
	case OpEqual:
		return got == want
	case OpNotEqual:
		return got != want
	case OpGreater:
		return got > want
	case OpGreaterEqual:
		return got >= want
	case OpLess:
		return got < want
	case OpLessEqual:
		return got <= want
	default:
		return false
	}
}

func compareString(got, want string, op Operator) bool {
	cmp := strings.Compare(got, want)
	switch op {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreater:
		return cmp > 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLess:
		return cmp < 0
	case OpLessEqual:
		return cmp <= 0
	default:
		return false
	}
}
