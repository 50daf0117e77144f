// Package packet turns message type definitions into concrete serialized
// messages. A PacketGenerator instantiates every field of a message type,
// either fully valid or with exactly one injected fault, and the serializer
// bit-packs the result into a byte-aligned buffer.
package packet

import (
	"encoding/hex"
	"math/big"

	"github.com/lmco/parselab/internal/util"
	"github.com/lmco/parselab/spec"
)

// Packet is one fully generated message: its flattened field values, the
// packed bits, and the fault bookkeeping for the manifest.
type Packet struct {
	// MessageType is the type the packet was generated from.
	MessageType *spec.MessageType
	// Values holds the generated field values, flattened from structs and
	// lists, in serialization order.
	Values []*spec.GeneratedValue
	// Data holds the packed bits as one unsigned integer, already padded to a
	// byte multiple.
	Data *big.Int
	// Bits is the significant bit count before padding.
	Bits int
	// Valid reports whether the packet conforms to its message type.
	Valid bool
	// Degraded is set when an invalid packet was requested but no field could
	// be invalidated, so a valid packet was produced instead.
	Degraded bool
	// FaultField names the corrupted field (dotted path for struct members);
	// empty for valid packets.
	FaultField string
	// FaultClass classifies the injected fault; ClassValid for valid packets.
	FaultClass spec.Classification
}

// Bytes renders the packed bits as a big-endian byte buffer. The buffer
// length is the padded bit count divided by eight.
func (p *Packet) Bytes() []byte {
	return util.BytesFromBits(p.Data, p.Bits)
}

// HexString renders the packed bits as a whole-byte hex string, preserving
// leading zero bytes.
func (p *Packet) HexString() string {
	return hex.EncodeToString(p.Bytes())
}

// Hexdump renders the packet bytes in hexdump format for the human-readable
// testcase listing.
func (p *Packet) Hexdump() string {
	return hex.Dump(p.Bytes())
}
