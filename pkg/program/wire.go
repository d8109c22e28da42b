package program

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Wire framing for stored programs. The magic string and version let a loader
// reject foreign or stale blobs before decoding the body.
const (
	wireMagic   = "MRHN"
	wireVersion = 1
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("program: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

func cborDecode(data []byte, v any) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("program: decode: %w", err)
	}
	return nil
}

type programWire struct {
	Magic   string   `cbor:"1,keyasint"`
	Version uint16   `cbor:"2,keyasint"`
	Body    *Program `cbor:"3,keyasint"`
}

// Encode serializes a program with its wire header. Encoding is canonical:
// equal programs always produce identical bytes.
func Encode(p *Program) ([]byte, error) {
	data, err := cborEncMode.Marshal(programWire{
		Magic:   wireMagic,
		Version: wireVersion,
		Body:    p,
	})
	if err != nil {
		return nil, fmt.Errorf("program: encode: %w", err)
	}
	return data, nil
}

// Decode deserializes a program, verifying the wire header.
func Decode(data []byte) (*Program, error) {
	var w programWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("program: decode: %w", err)
	}
	if w.Magic != wireMagic {
		return nil, fmt.Errorf("program: decode: bad magic %q", w.Magic)
	}
	if w.Version != wireVersion {
		return nil, fmt.Errorf("program: decode: unsupported version %d", w.Version)
	}
	if w.Body == nil {
		return nil, fmt.Errorf("program: decode: missing body")
	}
	if w.Body.VarNames == nil {
		w.Body.VarNames = NewNames()
	}
	return w.Body, nil
}
