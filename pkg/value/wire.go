package value

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Canonical encoding mode, so identical values always produce identical
// bytes regardless of encoder state.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("value: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// varWire is the serialized shape of a Var. Integer keys keep the encoding
// compact; the Type tag disambiguates which payload field is live.
type varWire struct {
	Type  uint8   `cbor:"1,keyasint"`
	Int   int64   `cbor:"2,keyasint,omitempty"`
	Float float64 `cbor:"3,keyasint,omitempty"`
	Str   string  `cbor:"4,keyasint,omitempty"`
	List  []Var   `cbor:"5,keyasint,omitempty"`
}

// MarshalCBOR implements cbor.Marshaler with a canonical, deterministic
// encoding.
func (v Var) MarshalCBOR() ([]byte, error) {
	w := varWire{Type: uint8(v.t)}
	switch v.t {
	case TypeInt, TypeObj, TypeErr:
		w.Int = v.i
	case TypeFloat:
		w.Float = v.f
	case TypeStr:
		w.Str = v.s
	case TypeList:
		w.List = v.l
	}
	return cborEncMode.Marshal(w)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (v *Var) UnmarshalCBOR(data []byte) error {
	var w varWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("value: unmarshal var: %w", err)
	}
	t := Type(w.Type)
	switch t {
	case TypeNone:
		*v = Var{}
	case TypeInt:
		*v = Int(w.Int)
	case TypeObj:
		*v = Obj(Objid(w.Int))
	case TypeErr:
		*v = Err(Error(w.Int))
	case TypeFloat:
		*v = Float(w.Float)
	case TypeStr:
		*v = Str(w.Str)
	case TypeList:
		items := w.List
		if items == nil {
			items = []Var{}
		}
		*v = List(items...)
	default:
		return fmt.Errorf("value: unmarshal var: unknown type tag %d", w.Type)
	}
	return nil
}
