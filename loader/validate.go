package loader

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) warn(log *slog.Logger) {
	for _, w := range e.Warnings {
		log.Warn("game definition", "warning", w)
	}
}

// checkFields warns about keys a table declares that nothing reads.
// Usually a typo.
func checkFields(ve *ValidationError, where string, tbl *lua.LTable, known map[string]bool) {
	var unknown []string
	tbl.ForEach(func(k, _ lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s has a non-string key %s", where, k.String()))
			return
		}
		if !known[string(ks)] {
			unknown = append(unknown, string(ks))
		}
	})
	sort.Strings(unknown)
	for _, k := range unknown {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: unknown field %q", where, k))
	}
}

// stringList checks that v is nil or an array of strings and returns it.
func stringList(ve *ValidationError, where string, v lua.LValue) []string {
	if v == lua.LNil {
		return nil
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s must be a list of strings, got %s", where, v.Type()))
		return nil
	}
	for i := 1; i <= tbl.MaxN(); i++ {
		if _, ok := tbl.RawGetInt(i).(lua.LString); !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s[%d] must be a string, got %s", where, i, tbl.RawGetInt(i).Type()))
		}
	}
	return toStrings(tbl)
}

func checkStringMap(ve *ValidationError, where string, v lua.LValue) {
	if v == lua.LNil {
		return
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s must be a table, got %s", where, v.Type()))
		return
	}
	tbl.ForEach(func(k, val lua.LValue) {
		_, kOK := k.(lua.LString)
		_, vOK := val.(lua.LString)
		if !kOK || !vOK {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s must map command names to entity ids", where))
		}
	})
}

func checkTable(ve *ValidationError, where string, v lua.LValue) {
	if v == lua.LNil {
		return
	}
	if _, ok := v.(*lua.LTable); !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s must be a table, got %s", where, v.Type()))
	}
}

func checkFunction(ve *ValidationError, where string, v lua.LValue) {
	if v == lua.LNil {
		return
	}
	if _, ok := v.(*lua.LFunction); !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s must be a function, got %s", where, v.Type()))
	}
}

// checkText accepts a string, a function, or a list of either.
func checkText(ve *ValidationError, where string, v lua.LValue) {
	switch val := v.(type) {
	case *lua.LNilType, lua.LString, *lua.LFunction:
	case *lua.LTable:
		for i := 1; i <= val.MaxN(); i++ {
			switch val.RawGetInt(i).(type) {
			case lua.LString, *lua.LFunction:
			default:
				ve.Errors = append(ve.Errors, fmt.Sprintf("%s[%d] must be a string or function, got %s", where, i, val.RawGetInt(i).Type()))
			}
		}
	default:
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s must be text (string, function or list), got %s", where, v.Type()))
	}
}
