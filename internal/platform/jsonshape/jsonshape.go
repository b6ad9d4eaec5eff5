// Package jsonshape normalizes legacy JSON-ish column values into typed Go
// values. Rows written by older versions of the system store list fields in
// three shapes: a real JSON array, a JSON-encoded string containing an array,
// or a bare comma-separated string. Every read site goes through one of the
// Parse functions here instead of decoding inline; a value that cannot be
// recovered degrades to the type's zero value with Fallback set, it is never
// an error.
package jsonshape

import (
	"encoding/json"
	"strconv"
	"strings"
)

// IntListResult is the outcome of normalizing an integer-list field.
type IntListResult struct {
	Values   []int64
	Fallback bool
}

// FloatListResult is the outcome of normalizing a numeric-list field.
type FloatListResult struct {
	Values   []float64
	Fallback bool
}

// ReportFormula is the embedded dependency list a non-report service carries:
// two parallel lists where Position is carried through unchanged and
// ServiceID holds the referenced report-service ids.
type ReportFormula struct {
	Position  []int64 `json:"position"`
	ServiceID []int64 `json:"service_id"`
}

// IsEmpty reports whether the formula references no services.
func (f ReportFormula) IsEmpty() bool {
	return len(f.ServiceID) == 0
}

// ReportFormulaResult is the outcome of normalizing a report-formula field.
type ReportFormulaResult struct {
	Value    ReportFormula
	Fallback bool
}

// ParseIntList normalizes a stored integer list. Empty input yields an empty
// list without the fallback flag, so callers can distinguish "absent" from
// "unreadable".
func ParseIntList(raw []byte) IntListResult {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return IntListResult{Values: []int64{}}
	}

	var nums []json.Number
	if err := json.Unmarshal([]byte(s), &nums); err == nil {
		vals, ok := numbersToInts(nums)
		if !ok {
			return IntListResult{Values: []int64{}, Fallback: true}
		}
		return IntListResult{Values: vals}
	}

	// JSON-encoded string wrapping either an array or a comma list.
	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err == nil {
		return ParseIntList([]byte(inner))
	}

	if vals, ok := splitInts(s); ok {
		return IntListResult{Values: vals}
	}
	return IntListResult{Values: []int64{}, Fallback: true}
}

// ParseFloatList normalizes a stored numeric list with the same tolerance
// rules as ParseIntList.
func ParseFloatList(raw []byte) FloatListResult {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return FloatListResult{Values: []float64{}}
	}

	var vals []float64
	if err := json.Unmarshal([]byte(s), &vals); err == nil {
		return FloatListResult{Values: vals}
	}

	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err == nil {
		return ParseFloatList([]byte(inner))
	}

	trimmed := strings.Trim(s, "[]")
	var out []float64
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return FloatListResult{Values: []float64{}, Fallback: true}
		}
		out = append(out, v)
	}
	if out == nil {
		return FloatListResult{Values: []float64{}, Fallback: true}
	}
	return FloatListResult{Values: out}
}

// ParseReportFormula normalizes a stored report formula. Anything other than
// a well-formed {position, service_id} object (directly or wrapped in a JSON
// string) collapses to the empty formula with Fallback set.
func ParseReportFormula(raw []byte) ReportFormulaResult {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" || s == "{}" {
		return ReportFormulaResult{Value: emptyFormula()}
	}

	var obj struct {
		Position  []json.Number `json:"position"`
		ServiceID []json.Number `json:"service_id"`
	}
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		pos, okP := numbersToInts(obj.Position)
		ids, okS := numbersToInts(obj.ServiceID)
		if !okP || !okS {
			return ReportFormulaResult{Value: emptyFormula(), Fallback: true}
		}
		return ReportFormulaResult{Value: ReportFormula{Position: pos, ServiceID: ids}}
	}

	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err == nil {
		return ParseReportFormula([]byte(inner))
	}

	return ReportFormulaResult{Value: emptyFormula(), Fallback: true}
}

func emptyFormula() ReportFormula {
	return ReportFormula{Position: []int64{}, ServiceID: []int64{}}
}

func numbersToInts(nums []json.Number) ([]int64, bool) {
	out := make([]int64, 0, len(nums))
	for _, n := range nums {
		v, err := n.Int64()
		if err != nil {
			// Tolerate whole-valued floats ("3.0") written by old clients.
			f, ferr := n.Float64()
			if ferr != nil || f != float64(int64(f)) {
				return nil, false
			}
			v = int64(f)
		}
		out = append(out, v)
	}
	return out, true
}

func splitInts(s string) ([]int64, bool) {
	out := []int64{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}
