// Package mission holds the fixed-layout state records that ride inside
// mission update messages. Field order and byte widths are part of the
// wire contract and must round-trip bit-exact.
package mission

import (
	"github.com/driftgate/server/internal/net/packet"
)

// ObjectiveState values mirror the client's mission state machine.
const (
	ObjectiveStateInvalid int32 = iota
	ObjectiveStateAvailable
	ObjectiveStateActive
	ObjectiveStateCompleted
	ObjectiveStateFailed
	ObjectiveStateSkipped
)

// Objective is one mission objective's replicated state. Layout, in
// order: objectives index (1 byte), objective index (1 byte), state
// (4-byte LE int32), then five varint64 counters.
type Objective struct {
	ObjectivesIndex  byte
	ObjectiveIndex   byte
	State            int32
	StateExpireTime  uint64
	InteractedEntity uint64
	CurrentCount     uint64
	RequiredCount    uint64
	FailCurrentCount uint64
	FailRequiredCnt  uint64
}

// Encode serializes the objective in declared field order.
func (o *Objective) Encode() []byte {
	w := packet.NewWriter()
	w.WriteC(o.ObjectivesIndex)
	w.WriteC(o.ObjectiveIndex)
	w.WriteD(o.State)
	w.WriteVarUint(o.StateExpireTime)
	w.WriteVarUint(o.InteractedEntity)
	w.WriteVarUint(o.CurrentCount)
	w.WriteVarUint(o.RequiredCount)
	w.WriteVarUint(o.FailCurrentCount)
	w.WriteVarUint(o.FailRequiredCnt)
	return w.Bytes()
}

// Decode parses an objective record. A short or malformed buffer returns
// an error and the caller must drop the enclosing message.
func Decode(data []byte) (*Objective, error) {
	r := packet.NewRecordReader(data)
	o := &Objective{
		ObjectivesIndex:  r.ReadC(),
		ObjectiveIndex:   r.ReadC(),
		State:            r.ReadD(),
		StateExpireTime:  r.ReadVarUint(),
		InteractedEntity: r.ReadVarUint(),
		CurrentCount:     r.ReadVarUint(),
		RequiredCount:    r.ReadVarUint(),
		FailCurrentCount: r.ReadVarUint(),
		FailRequiredCnt:  r.ReadVarUint(),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return o, nil
}
