package mission

import (
	"bytes"
	"errors"
	"testing"

	"github.com/driftgate/server/internal/net/packet"
)

func TestObjectiveRoundTrip(t *testing.T) {
	orig := &Objective{
		ObjectivesIndex:  3,
		ObjectiveIndex:   7,
		State:            ObjectiveStateActive,
		StateExpireTime:  1700000000000,
		InteractedEntity: 1042,
		CurrentCount:     5,
		RequiredCount:    10,
		FailCurrentCount: 0,
		FailRequiredCnt:  3,
	}

	decoded, err := Decode(orig.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *decoded != *orig {
		t.Fatalf("round-trip mismatch:\n got %+v\nwant %+v", decoded, orig)
	}
}

func TestObjectiveReencodeIsIdentical(t *testing.T) {
	// encode(decode(bytes)) must reproduce the input byte-for-byte.
	orig := &Objective{
		ObjectivesIndex: 1,
		ObjectiveIndex:  1,
		State:           ObjectiveStateCompleted,
		StateExpireTime: 99,
		CurrentCount:    300, // multi-byte varint
		RequiredCount:   300,
	}
	raw := orig.Encode()

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.Encode(), raw) {
		t.Fatalf("re-encode differs:\n got % X\nwant % X", decoded.Encode(), raw)
	}
}

func TestObjectiveNegativeState(t *testing.T) {
	orig := &Objective{State: -1}
	decoded, err := Decode(orig.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.State != -1 {
		t.Fatalf("state = %d, want -1", decoded.State)
	}
}

func TestObjectiveDecodeShortBuffer(t *testing.T) {
	full := (&Objective{State: ObjectiveStateActive, RequiredCount: 1}).Encode()

	for cut := 0; cut < len(full); cut++ {
		if _, err := Decode(full[:cut]); !errors.Is(err, packet.ErrShortPacket) {
			t.Fatalf("truncated at %d bytes: expected ErrShortPacket, got %v", cut, err)
		}
	}
}
