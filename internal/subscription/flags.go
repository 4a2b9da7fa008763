package subscription

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind identifies one category of recurring notification. Each kind owns one
// bit in the subscription bitset.
//
// The bit width is fixed at build time. Adding a kind appends a new bit;
// a retired kind's position is never reused within the same deployment
// lineage.
type Kind uint16

const (
	KindDailyReset Kind = 1 << iota
	KindWeeklyReset
	KindFashionReport
	KindOceanFishing
	KindCactpotNA
	KindCactpotEU
	KindCactpotJP
	KindCactpotOCE
	KindGate
)

// FlagWidth is the serialized bit-string width.
const FlagWidth = 16

// validMask covers every defined kind bit.
const validMask = Flags(KindDailyReset | KindWeeklyReset | KindFashionReport |
	KindOceanFishing | KindCactpotNA | KindCactpotEU | KindCactpotJP |
	KindCactpotOCE | KindGate)

var kindNames = map[Kind]string{
	KindDailyReset:    "daily_reset",
	KindWeeklyReset:   "weekly_reset",
	KindFashionReport: "fashion_report",
	KindOceanFishing:  "ocean_fishing",
	KindCactpotNA:     "jumbo_cactpot_na",
	KindCactpotEU:     "jumbo_cactpot_eu",
	KindCactpotJP:     "jumbo_cactpot_jp",
	KindCactpotOCE:    "jumbo_cactpot_oce",
	KindGate:          "gate",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(0x%x)", uint16(k))
}

// Kinds lists every defined kind in bit order.
func Kinds() []Kind {
	return []Kind{
		KindDailyReset, KindWeeklyReset, KindFashionReport, KindOceanFishing,
		KindCactpotNA, KindCactpotEU, KindCactpotJP, KindCactpotOCE, KindGate,
	}
}

// ErrInvalidFlags is returned when a flag value carries bits outside the
// defined kinds. Callers must not retry; the value itself is wrong.
var ErrInvalidFlags = errors.New("invalid subscription flags")

// Flags is a fixed-width bitset over Kind.
type Flags uint16

// None returns an empty flag set.
func None() Flags { return 0 }

// All returns a flag set with every defined kind enabled.
func All() Flags { return validMask }

// NewFlags validates a raw value at the construction boundary.
func NewFlags(v uint64) (Flags, error) {
	if v > uint64(^uint16(0)) {
		return 0, fmt.Errorf("%w: value %d exceeds %d bits", ErrInvalidFlags, v, FlagWidth)
	}
	f := Flags(v)
	if f&^validMask != 0 {
		return 0, fmt.Errorf("%w: unknown bits 0x%x", ErrInvalidFlags, uint16(f&^validMask))
	}
	return f, nil
}

func (f Flags) Has(k Kind) bool   { return f&Flags(k) != 0 }
func (f Flags) With(k Kind) Flags { return f | Flags(k) }
func (f Flags) Without(k Kind) Flags {
	return f &^ Flags(k)
}
func (f Flags) Union(o Flags) Flags { return f | o }
func (f Flags) IsEmpty() bool       { return f == 0 }

// Valid reports whether every set bit maps to a defined kind.
func (f Flags) Valid() bool { return f&^validMask == 0 }

// Kinds returns the kinds enabled in f, in bit order.
func (f Flags) Kinds() []Kind {
	var out []Kind
	for _, k := range Kinds() {
		if f.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// BitString serializes to a fixed-width binary string, most significant bit
// first. This is the storage wire format.
func (f Flags) BitString() string {
	return fmt.Sprintf("%0*b", FlagWidth, uint16(f))
}

// ParseBitString round-trips BitString output. Unknown set bits and wrong
// widths are rejected.
func ParseBitString(s string) (Flags, error) {
	if len(s) != FlagWidth {
		return 0, fmt.Errorf("%w: bit string length %d, want %d", ErrInvalidFlags, len(s), FlagWidth)
	}
	v, err := strconv.ParseUint(s, 2, FlagWidth)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidFlags, s)
	}
	return NewFlags(v)
}
