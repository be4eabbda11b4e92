package econ

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// stateDigest folds the full mutable simulation state into a sha256 hex
// string. Two runs from identical scenarios must produce identical
// digest sequences; the determinism tests and the tick index rely on it.
func (s *Simulator) stateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, s.tick)
	digestWriteF64(h, &tmp, s.ledger.Capacity)
	for r := Resource(0); r < NumResources; r++ {
		digestWriteF64(h, &tmp, s.ledger.Stock[r])
	}

	digestWriteU64(h, &tmp, uint64(len(s.Production.order)))
	for _, id := range s.Production.order {
		b := s.Production.buildings[id]
		h.Write([]byte(b.ID))
		h.Write([]byte(b.Type))
		digestWriteI64(h, &tmp, int64(b.Pos.X))
		digestWriteI64(h, &tmp, int64(b.Pos.Y))
		digestWriteI64(h, &tmp, int64(b.Pos.Z))
		digestWriteF64(h, &tmp, b.ZoneMul)
		digestWriteU64(h, &tmp, uint64(len(b.Workers)))
	}

	digestWriteU64(h, &tmp, uint64(len(s.Consumption.npcs)))
	for _, n := range s.Consumption.npcs {
		h.Write([]byte(n.ID))
		h.Write([]byte(n.Role))
		h.Write([]byte(n.AssignedBuilding))
		h.Write([]byte{boolByte(n.Alive), boolByte(n.Working)})
		digestWriteF64(h, &tmp, n.Happiness)
		digestWriteU64(h, &tmp, uint64(n.StarveStreak))
		digestWriteU64(h, &tmp, n.DiedTick)
	}

	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
