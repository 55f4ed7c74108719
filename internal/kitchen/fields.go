package kitchen

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/homekitchen/internal/models"
)

// checkKeys rejects keys outside allowed.
func checkKeys(f models.Fields, allowed ...string) error {
	for _, k := range f.Keys() {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return invalid(k, "unknown or read-only field")
		}
	}
	return nil
}

// stringField reads a text field. nil counts as "".
func stringField(f models.Fields, key string) (string, bool, error) {
	v, ok := f[key]
	if !ok {
		return "", false, nil
	}
	switch tv := v.(type) {
	case nil:
		return "", true, nil
	case string:
		return tv, true, nil
	case models.ItemStatus:
		return string(tv), true, nil
	default:
		return "", true, invalid(key, "expected text, got %T", v)
	}
}

// idField reads a record reference. Form values arrive as decimal strings.
func idField(f models.Fields, key string) (int64, bool, error) {
	v, ok := f[key]
	if !ok {
		return 0, false, nil
	}
	var id int64
	switch tv := v.(type) {
	case int:
		id = int64(tv)
	case int64:
		id = tv
	case float64:
		if tv != math.Trunc(tv) || tv <= 0 || tv >= math.MaxInt64 {
			return 0, true, invalid(key, "expected an integer ID")
		}
		id = int64(tv)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(tv), 10, 64)
		if err != nil {
			return 0, true, invalid(key, "expected an integer ID")
		}
		id = n
	default:
		return 0, true, invalid(key, "expected an integer ID, got %T", v)
	}
	if id <= 0 {
		return 0, true, invalid(key, "must be a positive ID")
	}
	return id, true, nil
}

// dataField reads structured custom data: a map, a structpb.Struct or a
// JSON object string. nil and "" clear the field.
func dataField(f models.Fields, key string) (*structpb.Struct, bool, error) {
	v, ok := f[key]
	if !ok {
		return nil, false, nil
	}
	var m map[string]any
	switch tv := v.(type) {
	case nil:
		return nil, true, nil
	case *structpb.Struct:
		return tv, true, nil
	case map[string]any:
		m = tv
	case string:
		if strings.TrimSpace(tv) == "" {
			return nil, true, nil
		}
		if err := json.Unmarshal([]byte(tv), &m); err != nil {
			return nil, true, invalid(key, "expected a JSON object")
		}
	default:
		return nil, true, invalid(key, "expected an object, got %T", v)
	}
	data, err := models.NewCustomData(m)
	if err != nil {
		return nil, true, invalid(key, "%v", err)
	}
	return data, true, nil
}

// nullable maps "" to nil in snapshots, mirroring NULL columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
