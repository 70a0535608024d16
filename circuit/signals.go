package circuit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/keylesszk/prover-service/poseidon"
)

// signalKind discriminates the value stored in a signal.
type signalKind int

const (
	kindU64 signalKind = iota
	kindFr
	kindFrs
	kindLimbs
	kindBytes
)

// signal is one named circuit input wire (or wire array).
type signal struct {
	kind  signalKind
	u64   uint64
	fr    fr.Element
	frs   []fr.Element
	limbs []uint64
	bytes []byte
}

// SignalsBuilder is the mutable, unpadded collection of circuit input
// signals. Padding with a circuit config is the only way to obtain the
// serializable Signals form, and it is one-way: a padded collection cannot
// be mutated or un-padded.
type SignalsBuilder struct {
	signals map[string]signal
}

// Signals is the sealed, padded collection. Every byte/limb signal has
// exactly its configured maximum length.
type Signals struct {
	signals map[string]signal
}

// NewSignalsBuilder returns an empty builder.
func NewSignalsBuilder() *SignalsBuilder {
	return &SignalsBuilder{signals: map[string]signal{}}
}

// Bytes sets a byte-vector signal.
func (b *SignalsBuilder) Bytes(name string, value []byte) *SignalsBuilder {
	v := make([]byte, len(value))
	copy(v, value)
	b.signals[name] = signal{kind: kindBytes, bytes: v}
	return b
}

// Str sets a byte-vector signal from a string's raw bytes.
func (b *SignalsBuilder) Str(name, value string) *SignalsBuilder {
	return b.Bytes(name, []byte(value))
}

// U64 sets an integer scalar signal.
func (b *SignalsBuilder) U64(name string, value uint64) *SignalsBuilder {
	b.signals[name] = signal{kind: kindU64, u64: value}
	return b
}

// Usize sets an integer scalar signal from an int.
func (b *SignalsBuilder) Usize(name string, value int) *SignalsBuilder {
	return b.U64(name, uint64(value))
}

// Bool sets an integer scalar signal from a bool (0 or 1).
func (b *SignalsBuilder) Bool(name string, value bool) *SignalsBuilder {
	if value {
		return b.U64(name, 1)
	}
	return b.U64(name, 0)
}

// Bools sets a byte-vector signal with one 0/1 byte per input bit.
func (b *SignalsBuilder) Bools(name string, value []bool) *SignalsBuilder {
	bytes := make([]byte, len(value))
	for i, bit := range value {
		if bit {
			bytes[i] = 1
		}
	}
	b.signals[name] = signal{kind: kindBytes, bytes: bytes}
	return b
}

// Limbs sets a fixed-width unsigned limb vector signal (little-endian by
// value).
func (b *SignalsBuilder) Limbs(name string, value []uint64) *SignalsBuilder {
	v := make([]uint64, len(value))
	copy(v, value)
	b.signals[name] = signal{kind: kindLimbs, limbs: v}
	return b
}

// Fr sets a field-element signal.
func (b *SignalsBuilder) Fr(name string, value fr.Element) *SignalsBuilder {
	b.signals[name] = signal{kind: kindFr, fr: value}
	return b
}

// Frs sets a field-element vector signal.
func (b *SignalsBuilder) Frs(name string, value []fr.Element) *SignalsBuilder {
	v := make([]fr.Element, len(value))
	copy(v, value)
	b.signals[name] = signal{kind: kindFrs, frs: v}
	return b
}

// Merge folds another builder into this one. Redefining a signal that is
// already present is an error: sub-groups of signals are built independently
// and must not silently overwrite each other.
func (b *SignalsBuilder) Merge(other *SignalsBuilder) (*SignalsBuilder, error) {
	for name := range other.signals {
		if _, exists := b.signals[name]; exists {
			return nil, fmt.Errorf("cannot redefine signal %q during merge", name)
		}
	}
	for name, s := range other.signals {
		b.signals[name] = s
	}
	return b, nil
}

// Pad zero-pads every byte and limb signal to its configured maximum length
// and seals the collection. A byte signal with no configured maximum is an
// error; a limb signal with no configured maximum keeps its current length.
// That asymmetry is deliberate: it mirrors the deployed circuit tooling, and
// changing it would silently alter the witness layout.
func (b *SignalsBuilder) Pad(cfg *Config) (*Signals, error) {
	padded := make(map[string]signal, len(b.signals))
	for name, s := range b.signals {
		switch s.kind {
		case kindU64, kindFr, kindFrs:
			padded[name] = s
		case kindLimbs:
			maxLen, ok := cfg.MaxLengths[name]
			if !ok {
				maxLen = len(s.limbs)
			}
			if maxLen < len(s.limbs) {
				return nil, fmt.Errorf("signal %q: max limb length %d exceeded (actual %d)", name, maxLen, len(s.limbs))
			}
			limbs := make([]uint64, maxLen)
			copy(limbs, s.limbs)
			padded[name] = signal{kind: kindLimbs, limbs: limbs}
		case kindBytes:
			maxLen, ok := cfg.MaxLengths[name]
			if !ok {
				return nil, fmt.Errorf("signal %q: no max length in circuit config", name)
			}
			if maxLen < len(s.bytes) {
				return nil, fmt.Errorf("signal %q: max byte length %d exceeded (actual %d)", name, maxLen, len(s.bytes))
			}
			bytes := make([]byte, maxLen)
			copy(bytes, s.bytes)
			padded[name] = signal{kind: kindBytes, bytes: bytes}
		}
	}
	return &Signals{signals: padded}, nil
}

// Names returns the signal names in sorted order.
func (s *Signals) Names() []string {
	names := make([]string, 0, len(s.signals))
	for name := range s.signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanonicalJSON renders the padded signals as the JSON object the external
// witness generator consumes. Every value is a decimal string (never a JSON
// number: field elements exceed float64 precision), and map keys are sorted.
func (s *Signals) CanonicalJSON() ([]byte, error) {
	obj := make(map[string]any, len(s.signals))
	for name, sig := range s.signals {
		switch sig.kind {
		case kindU64:
			obj[name] = strconv.FormatUint(sig.u64, 10)
		case kindFr:
			obj[name] = poseidon.FrString(sig.fr)
		case kindFrs:
			vals := make([]string, len(sig.frs))
			for i, e := range sig.frs {
				vals[i] = poseidon.FrString(e)
			}
			obj[name] = vals
		case kindLimbs:
			vals := make([]string, len(sig.limbs))
			for i, l := range sig.limbs {
				vals[i] = strconv.FormatUint(l, 10)
			}
			obj[name] = vals
		case kindBytes:
			vals := make([]string, len(sig.bytes))
			for i, c := range sig.bytes {
				vals[i] = strconv.FormatUint(uint64(c), 10)
			}
			obj[name] = vals
		}
	}
	return json.Marshal(obj)
}

// byteLen reports the padded length of a byte/limb signal, for tests.
func (s *Signals) byteLen(name string) (int, bool) {
	sig, ok := s.signals[name]
	if !ok {
		return 0, false
	}
	switch sig.kind {
	case kindBytes:
		return len(sig.bytes), true
	case kindLimbs:
		return len(sig.limbs), true
	default:
		return 0, false
	}
}
