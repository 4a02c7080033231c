// Package record decodes a cell's payload into a typed Row: the header
// phase (serial types), the body phase (column bytes), and overflow
// chain reassembly.
package record

import (
	"fmt"

	"github.com/mattleeder/sgl/internal/dberrors"
)

// Kind tags the dynamic type of a decoded Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindText
	KindBlob
)

// Value is a tagged union over the column types this engine supports.
// Float (serial type 7) is rejected at decode time since floats are out
// of scope.
type Value struct {
	Kind Kind
	Int  int64
	Text []byte // raw bytes for TEXT and BLOB
}

func NewNull() Value         { return Value{Kind: KindNull} }
func NewInt(v int64) Value   { return Value{Kind: KindInt, Int: v} }
func NewText(b []byte) Value { return Value{Kind: KindText, Text: b} }
func NewBlob(b []byte) Value { return Value{Kind: KindBlob, Text: b} }
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders a value the way result rows are printed: NULL prints
// literally, integers in decimal, text/blob verbatim without quoting.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindText, KindBlob:
		return string(v.Text)
	default:
		return ""
	}
}

// Compare orders two values for the "=", "<", ">" predicates used by
// Filter and the index cursor. comparable is false when the two values
// have different dynamic types (spec: different types compare
// non-equal for any operator) or when exactly one side is NULL. Two
// NULLs compare equal (cmp 0).
func Compare(a, b Value) (cmp int, comparable bool) {
	if a.Kind == KindNull || b.Kind == KindNull {
		if a.Kind == KindNull && b.Kind == KindNull {
			return 0, true
		}
		return 0, false
	}
	if a.Kind != b.Kind {
		return 0, false
	}
	switch a.Kind {
	case KindInt:
		switch {
		case a.Int < b.Int:
			return -1, true
		case a.Int > b.Int:
			return 1, true
		default:
			return 0, true
		}
	case KindText, KindBlob:
		return compareBytes(a.Text, b.Text), true
	default:
		return 0, false
	}
}

// compareBytes is memcmp over the shorter prefix; on a tie, the shorter
// string sorts first.
func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b are comparable and compare equal.
func Equal(a, b Value) bool {
	cmp, ok := Compare(a, b)
	return ok && cmp == 0
}

// Row is a decoded record: the rowid plus its ordered column values.
type Row struct {
	Rowid  uint64
	Values []Value
}

// serialTypeSize returns the on-disk byte length of a serial type's
// content, and whether it denotes a (now-rejected) float column.
func serialTypeSize(serialType uint64) (size int, isFloat bool, err error) {
	switch {
	case serialType == 0, serialType == 8, serialType == 9:
		return 0, false, nil
	case serialType >= 1 && serialType <= 6:
		return []int{0, 1, 2, 3, 4, 6, 8}[serialType], false, nil
	case serialType == 7:
		return 8, true, nil
	case serialType == 10 || serialType == 11:
		return 0, false, dberrors.New(dberrors.KindFormat, "serial_type", dberrors.ErrReservedSerialType)
	case serialType%2 == 0:
		return int((serialType - 12) / 2), false, nil
	default:
		return int((serialType - 13) / 2), false, nil
	}
}

func valueFromSerialType(serialType uint64, body []byte) (Value, error) {
	switch {
	case serialType == 0:
		return NewNull(), nil
	case serialType == 8:
		return NewInt(0), nil
	case serialType == 9:
		return NewInt(1), nil
	case serialType >= 1 && serialType <= 6:
		v, err := decodeSignedInt(serialType, body)
		if err != nil {
			return Value{}, err
		}
		return NewInt(v), nil
	case serialType == 7:
		return Value{}, dberrors.New(dberrors.KindUnsupported, "serial_type", dberrors.ErrFloatUnsupported)
	case serialType%2 == 0:
		return NewBlob(body), nil
	default:
		return NewText(body), nil
	}
}
