package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/njmcode/nidc2021-textadv/types"
)

// DefaultMessages returns the stock player-facing responses.
func DefaultMessages() types.Messages {
	return types.Messages{
		LocationItemsPrefix: "You can see ",
		InvPrefix:           "You are carrying ",
		InvNone:             "You are carrying nothing.",
		FailUnknown:         "Sorry, I don't understand.",
		FailUnhandled:       "Sorry, I can't do that.",
		FailNoExit:          "You can't go that way.",
		FailExamine:         "Sorry, I can't see that.",
		FailGet:             "Sorry, I can't get that.",
		FailGetOwned:        "You already seem to have that.",
		FailDrop:            "Sorry, I can't drop that.",
		FailDropOwned:       "You don't seem to have that.",
		OKGet:               "Taken.",
		OKDrop:              "Dropped.",
		NothingSpecial:      "You see nothing special.",
		DidYouMean:          "Did you mean %q?",
	}
}

func messageFields(m *types.Messages) map[string]*string {
	return map[string]*string{
		"LOCATION_ITEMS_PREFIX": &m.LocationItemsPrefix,
		"INV_PREFIX":            &m.InvPrefix,
		"INV_NONE":              &m.InvNone,
		"FAIL_UNKNOWN":          &m.FailUnknown,
		"FAIL_UNHANDLED":        &m.FailUnhandled,
		"FAIL_NO_EXIT":          &m.FailNoExit,
		"FAIL_EXAMINE":          &m.FailExamine,
		"FAIL_GET":              &m.FailGet,
		"FAIL_GET_OWNED":        &m.FailGetOwned,
		"FAIL_DROP":             &m.FailDrop,
		"FAIL_DROP_OWNED":       &m.FailDropOwned,
		"OK_GET":                &m.OKGet,
		"OK_DROP":               &m.OKDrop,
		"NOTHING_SPECIAL":       &m.NothingSpecial,
		"DID_YOU_MEAN":          &m.DidYouMean,
	}
}

// MessageKeys lists every overridable message key.
func MessageKeys() []string {
	var m types.Messages
	fields := messageFields(&m)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyMessages overrides base with the given key/value pairs. Keys are
// case-insensitive. Unknown keys are an error.
func ApplyMessages(base types.Messages, overrides map[string]string) (types.Messages, error) {
	fields := messageFields(&base)
	var unknown []string
	for k, v := range overrides {
		ptr, ok := fields[strings.ToUpper(k)]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		*ptr = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return base, fmt.Errorf("unknown message keys: %s", strings.Join(unknown, ", "))
	}
	return base, nil
}
