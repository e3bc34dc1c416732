package params

import (
	"math"
	"unicode"
	"unicode/utf8"
)

// Set maps parameter names to values. Generators read it with explicit
// defaults and never mutate it.
type Set map[string]Value

// Get returns the named value.
func (s Set) Get(name string) (Value, bool) {
	v, ok := s[name]
	if !ok || v.kind == KindNone {
		return Value{}, false
	}
	return v, true
}

// Has reports whether name is present.
func (s Set) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Float returns the named number, or def when it is absent or not numeric.
func (s Set) Float(name string, def float64) float64 {
	if v, ok := s.Get(name); ok {
		if f, ok := v.Float(); ok && !math.IsNaN(f) {
			return f
		}
	}
	return def
}

// Int returns the named number rounded to the nearest integer.
func (s Set) Int(name string, def int) int {
	if v, ok := s.Get(name); ok {
		if f, ok := v.Float(); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(math.Round(f))
		}
	}
	return def
}

// Bool returns the named flag. Numbers count as true when non-zero.
func (s Set) Bool(name string, def bool) bool {
	if v, ok := s.Get(name); ok {
		if b, ok := v.Truth(); ok {
			return b
		}
	}
	return def
}

// String returns the named string, or def.
func (s Set) String(name, def string) string {
	if v, ok := s.Get(name); ok {
		if str, ok := v.Str(); ok {
			return str
		}
	}
	return def
}

// Array returns the elements of the named array, or nil.
func (s Set) Array(name string) []Value {
	v, _ := s.Get(name)
	return v.Items()
}

// Ramp resolves the start and end of a transitioning parameter.
//
// The start value is the first present of start<Name>, start_<name>, <name>
// and def. The end value is the first present of end<Name>, end_<name> and
// the resolved start.
func (s Set) Ramp(name string, def float64) (start, end float64) {
	start = s.Float(name, def)
	if v, ok := s.first("start"+capitalize(name), "start_"+name); ok {
		start = v
	}
	end = start
	if v, ok := s.first("end"+capitalize(name), "end_"+name); ok {
		end = v
	}
	return start, end
}

// RampBool resolves a transitioning flag with the same fallback rules as Ramp.
func (s Set) RampBool(name string, def bool) (start, end bool) {
	start = s.Bool(name, def)
	for _, k := range []string{"start" + capitalize(name), "start_" + name} {
		if s.Has(k) {
			start = s.Bool(k, start)
			break
		}
	}
	end = start
	for _, k := range []string{"end" + capitalize(name), "end_" + name} {
		if s.Has(k) {
			end = s.Bool(k, end)
			break
		}
	}
	return start, end
}

// Pick returns a new Set containing only the listed names that are present.
func (s Set) Pick(names ...string) Set {
	out := make(Set, len(names))
	for _, n := range names {
		if v, ok := s.Get(n); ok {
			out[n] = v
		}
	}
	return out
}

func (s Set) first(names ...string) (float64, bool) {
	for _, n := range names {
		if v, ok := s.Get(n); ok {
			if f, ok := v.Float(); ok && !math.IsNaN(f) {
				return f, true
			}
		}
	}
	return 0, false
}

func capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// FromMap converts a decoded map into a Set.
func FromMap(m map[string]any) (Set, error) {
	s := make(Set, len(m))
	for k, x := range m {
		v, err := FromAny(x)
		if err != nil {
			return nil, err
		}
		s[k] = v
	}
	return s, nil
}
