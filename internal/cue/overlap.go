package cue

// OverlapBuffer keeps the last L samples of the live signal so a cue that
// straddles two chunks is still seen whole. It starts as L zeros.
type OverlapBuffer struct {
	tail []float64
	work []float64
}

func NewOverlapBuffer(l int) *OverlapBuffer {
	return &OverlapBuffer{tail: make([]float64, l)}
}

func (o *OverlapBuffer) Len() int { return len(o.tail) }

// Push appends chunk and returns tail ++ chunk. The returned slice is reused
// by the next Push.
func (o *OverlapBuffer) Push(chunk []float32) []float64 {
	l := len(o.tail)
	need := l + len(chunk)
	if cap(o.work) < need {
		o.work = make([]float64, need)
	}
	o.work = o.work[:need]

	copy(o.work, o.tail)
	for i, v := range chunk {
		o.work[l+i] = float64(v)
	}
	copy(o.tail, o.work[need-l:])
	return o.work
}
