package models

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// TimeLayout is the string form timestamps take inside snapshots.
const TimeLayout = time.RFC3339Nano

// Normalize returns a copy of s in which every value is representable by
// structpb: timestamps become RFC 3339 strings, structs become maps and
// named string types become plain strings.
func (s Snapshot) Normalize() (Snapshot, error) {
	if s == nil {
		return nil, nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	switch tv := v.(type) {
	case nil, bool, string, float64, float32, int, int32, int64, uint32, uint64:
		return tv, nil
	case time.Time:
		if tv.IsZero() {
			return nil, nil
		}
		return tv.UTC().Format(TimeLayout), nil
	case *time.Time:
		if tv == nil || tv.IsZero() {
			return nil, nil
		}
		return tv.UTC().Format(TimeLayout), nil
	case ItemStatus:
		return string(tv), nil
	case *structpb.Struct:
		if tv == nil {
			return nil, nil
		}
		return tv.AsMap(), nil
	case map[string]any:
		m := make(map[string]any, len(tv))
		for k, e := range tv {
			ne, err := normalizeValue(e)
			if err != nil {
				return nil, err
			}
			m[k] = ne
		}
		return m, nil
	case []any:
		l := make([]any, len(tv))
		for i, e := range tv {
			ne, err := normalizeValue(e)
			if err != nil {
				return nil, err
			}
			l[i] = ne
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot value of type %T", v)
	}
}

// EncodeSnapshot serializes a snapshot as JSON. A nil snapshot encodes to nil.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	norm, err := s.Normalize()
	if err != nil {
		return nil, err
	}
	pb, err := structpb.NewStruct(norm)
	if err != nil {
		return nil, fmt.Errorf("failed to convert snapshot: %w", err)
	}
	return protojson.Marshal(pb)
}

// DecodeSnapshot parses the output of EncodeSnapshot. Numbers come back as float64.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var pb structpb.Struct
	if err := protojson.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return Snapshot(pb.AsMap()), nil
}

// NewCustomData validates an arbitrary map as order-item custom data.
// Nil or empty input yields nil.
func NewCustomData(m map[string]any) (*structpb.Struct, error) {
	if len(m) == 0 {
		return nil, nil
	}
	norm, err := Snapshot(m).Normalize()
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(norm)
}
