// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package streamsheet

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindBool
	KindInt
	KindFloat
	KindDateTime
	KindDuration
	KindError
)

var kindNames = [...]string{
	KindEmpty:    "empty",
	KindText:     "text",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindDateTime: "datetime",
	KindDuration: "duration",
	KindError:    "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable, typed cell value.
//
// The zero Value is Empty.
type Value struct {
	s    string // text, error code
	disp string // literal display text of an error
	t    time.Time
	i    int64 // int, bool, duration
	f    float64
	kind Kind
}

// Empty returns the empty Value.
func Empty() Value { return Value{} }

// Text returns a text Value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}
	return v
}

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// DateTime returns a date/time Value, keeping the location of t.
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

// Duration returns an elapsed time Value.
func Duration(d time.Duration) Value { return Value{kind: KindDuration, i: int64(d)} }

// FormulaError returns an error Value with the error code (such as "#DIV/0!")
// and the optional literal display text.
func FormulaError(code, display string) Value {
	return Value{kind: KindError, s: code, disp: display}
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Str returns the text of a text Value, the code of an error Value.
func (v Value) Str() string             { return v.s }
func (v Value) Bool() bool              { return v.i != 0 }
func (v Value) Int() int64              { return v.i }
func (v Value) Float() float64          { return v.f }
func (v Value) Time() time.Time         { return v.t }
func (v Value) Duration() time.Duration { return time.Duration(v.i) }

// ErrorCode returns the code of an error Value.
func (v Value) ErrorCode() string { return v.s }

// ErrorDisplay returns the literal display text of an error Value,
// falling back to its code.
func (v Value) ErrorDisplay() string {
	if v.disp != "" {
		return v.disp
	}
	return v.s
}

// String returns the canonical, locale independent rendering of the value.
func (v Value) String() string {
	switch v.kind {
	case KindText, KindError:
		return v.s
	case KindBool:
		if v.i != 0 {
			return "1"
		}
		return "0"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return FormatFloat(v.f)
	case KindDateTime:
		return FormatDateTime(v.t)
	case KindDuration:
		return FormatDuration(time.Duration(v.i))
	default:
		return ""
	}
}

// FormatFloat formats f with '.' as decimal separator, using the shortest
// representation that reads back to the same float.
// Integral values have no fraction, and very big or small magnitudes
// use an exponent: 1E+21.
func FormatFloat(f float64) string {
	if f == 0 {
		return "0"
	}
	if a := math.Abs(f); a < 1e-6 || a >= 1e21 {
		return strconv.FormatFloat(f, 'E', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatDateTime formats t as an RFC 3339 (ISO 8601) instant.
// UTC is written as Z.
func FormatDateTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// FormatDuration formats d as an ISO 8601 duration: P1DT23S.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	var buf strings.Builder
	buf.Grow(24)
	if d < 0 {
		buf.WriteByte('-')
	}
	buf.WriteByte('P')
	// math.MinInt64 has no positive counterpart
	u := uint64(d)
	if d < 0 {
		u = uint64(-(d + 1)) + 1
	}
	const (
		second = uint64(time.Second)
		minute = uint64(time.Minute)
		hour   = uint64(time.Hour)
		day    = 24 * hour
	)
	if days := u / day; days != 0 {
		buf.WriteString(strconv.FormatUint(days, 10))
		buf.WriteByte('D')
	}
	u %= day
	if u == 0 {
		return buf.String()
	}
	buf.WriteByte('T')
	if h := u / hour; h != 0 {
		buf.WriteString(strconv.FormatUint(h, 10))
		buf.WriteByte('H')
	}
	u %= hour
	if m := u / minute; m != 0 {
		buf.WriteString(strconv.FormatUint(m, 10))
		buf.WriteByte('M')
	}
	u %= minute
	if u != 0 {
		buf.WriteString(strconv.FormatUint(u/second, 10))
		if frac := u % second; frac != 0 {
			s := strconv.FormatUint(frac+second, 10)[1:] // zero padded to 9 digits
			buf.WriteByte('.')
			buf.WriteString(strings.TrimRight(s, "0"))
		}
		buf.WriteByte('S')
	}
	return buf.String()
}

// Styled is a cell value with its own style.
type Styled struct {
	V     any
	Style Style
}

// Cell is an inferred Value with the Style it is rendered with.
type Cell struct {
	Value Value
	Style Style
}

// Infer returns the Value for v.
//
// nil, "", zero time.Time and invalid sql.Null* values are Empty;
// driver.Valuers are resolved first. Types without an unambiguous
// spreadsheet representation (including fmt.Stringer) are rejected
// with ErrUnsupportedValueType.
func Infer(v any) (Value, error) {
	if v == nil {
		return Value{}, nil
	}
	switch x := v.(type) {
	case Value:
		return x, nil
	case Styled:
		return Infer(x.V)
	case string:
		if x == "" {
			return Value{}, nil
		}
		return Text(x), nil
	case []byte:
		if len(x) == 0 {
			return Value{}, nil
		}
		return Text(string(x)), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return inferUint(uint64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return inferUint(x), nil
	case float32:
		// shortest float32 decimal
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(x), 'g', -1, 32), 64)
		return inferFloat(f)
	case float64:
		return inferFloat(x)
	case Number:
		return inferNumber(x)
	case time.Time:
		if x.IsZero() {
			return Value{}, nil
		}
		return DateTime(x), nil
	case time.Duration:
		return Duration(x), nil
	case sql.NullString:
		if !x.Valid || x.String == "" {
			return Value{}, nil
		}
		return Text(x.String), nil
	case sql.NullBool:
		if !x.Valid {
			return Value{}, nil
		}
		return Bool(x.Bool), nil
	case sql.NullInt64:
		if !x.Valid {
			return Value{}, nil
		}
		return Int(x.Int64), nil
	case sql.NullInt32:
		if !x.Valid {
			return Value{}, nil
		}
		return Int(int64(x.Int32)), nil
	case sql.NullInt16:
		if !x.Valid {
			return Value{}, nil
		}
		return Int(int64(x.Int16)), nil
	case sql.NullByte:
		if !x.Valid {
			return Value{}, nil
		}
		return Int(int64(x.Byte)), nil
	case sql.NullFloat64:
		if !x.Valid {
			return Value{}, nil
		}
		return inferFloat(x.Float64)
	case sql.NullTime:
		if !x.Valid || x.Time.IsZero() {
			return Value{}, nil
		}
		return DateTime(x.Time), nil
	case driver.Valuer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Value{}, nil
		}
		dv, err := x.Value()
		if err != nil {
			return Value{}, fmt.Errorf("%T: %w", v, err)
		}
		if _, ok := dv.(driver.Valuer); ok {
			return Value{}, fmt.Errorf("%T: %w", v, ErrUnsupportedValueType)
		}
		return Infer(dv)
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Value{}, nil
		}
		return Infer(rv.Elem().Interface())
	}
	return Value{}, fmt.Errorf("%T: %w", v, ErrUnsupportedValueType)
}

func inferUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

func inferFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%v: %w", f, ErrUnsupportedValueType)
	}
	return Float(f), nil
}

func inferNumber(n Number) (Value, error) {
	s := strings.TrimSpace(string(n))
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("number %q: %w", string(n), ErrUnsupportedValueType)
	}
	return inferFloat(f)
}
