package state

import "math/rand"

// DefaultNumber is the face shown when the dice stops.
const DefaultNumber uint8 = 4

// Roller decides which number the dice shows when it stops.
type Roller interface {
	Roll() uint8
}

// FixedRoller always lands on the same face.
type FixedRoller uint8

func (r FixedRoller) Roll() uint8 {
	return uint8(r)
}

// RandomRoller lands on a face in [1, Faces].
type RandomRoller struct {
	Faces int
	rnd   *rand.Rand
}

func NewRandomRoller(faces int, seed int64) *RandomRoller {
	if faces <= 0 {
		faces = 6
	}
	return &RandomRoller{
		Faces: faces,
		rnd:   rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomRoller) Roll() uint8 {
	return uint8(r.rnd.Intn(r.Faces) + 1)
}
