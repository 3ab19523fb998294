package webhook

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/bytedance/sonic"
)

// Kind tags the shape the webhook answered with.
type Kind int

const (
	KindUnparseable Kind = iota
	KindEmpty
	KindArray
	KindObjectWithArray
	KindSingleObject
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindArray:
		return "array"
	case KindObjectWithArray:
		return "object_with_array"
	case KindSingleObject:
		return "single_object"
	default:
		return "unparseable"
	}
}

// ErrUnparseable is returned by Normalize when the body is not JSON.
var ErrUnparseable = errors.New("invalid response from campaign webhook")

// Payload is a normalized webhook answer. Campaign descriptors are passed
// through untouched.
type Payload struct {
	Kind  Kind
	items []json.RawMessage
}

// Campaigns returns the campaign list; never nil.
func (p Payload) Campaigns() []json.RawMessage {
	if p.items == nil {
		return []json.RawMessage{}
	}
	return p.items
}

// Normalize classifies body as one of:
//
//	[ {...}, ... ]                    KindArray
//	{"campaigns": [ {...}, ... ]}     KindObjectWithArray
//	{"id": ..., "name": ..., ...}     KindSingleObject
//	blank, null or any other object   KindEmpty
//
// Anything that does not parse yields KindUnparseable and ErrUnparseable.
func Normalize(body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Payload{Kind: KindEmpty}, nil
	}

	var doc any
	if err := sonic.Unmarshal(trimmed, &doc); err != nil {
		return Payload{Kind: KindUnparseable}, ErrUnparseable
	}

	switch doc.(type) {
	case []any:
		var items []json.RawMessage
		if err := sonic.Unmarshal(trimmed, &items); err != nil {
			return Payload{Kind: KindUnparseable}, ErrUnparseable
		}
		return Payload{Kind: KindArray, items: items}, nil

	case map[string]any:
		var fields map[string]json.RawMessage
		if err := sonic.Unmarshal(trimmed, &fields); err != nil {
			return Payload{Kind: KindUnparseable}, ErrUnparseable
		}
		if raw, ok := fields["campaigns"]; ok {
			var items []json.RawMessage
			if err := sonic.Unmarshal(raw, &items); err == nil && items != nil {
				return Payload{Kind: KindObjectWithArray, items: items}, nil
			}
		}
		if present(fields["id"]) && present(fields["name"]) {
			return Payload{Kind: KindSingleObject, items: []json.RawMessage{json.RawMessage(trimmed)}}, nil
		}
		return Payload{Kind: KindEmpty}, nil

	default:
		return Payload{Kind: KindEmpty}, nil
	}
}

// present reports whether raw holds a value other than null, "", 0 or false.
func present(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case float64:
		return val != 0
	case bool:
		return val
	default:
		return true
	}
}
