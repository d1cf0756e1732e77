package core

// MaxSamples is the largest median window.
const MaxSamples = 31

// SampleRing keeps the last N pulse widths of a channel together with the
// permutation that sorts them. order[k] is the slot holding the k-th
// smallest reading.
type SampleRing struct {
	readings [MaxSamples]uint16
	order    [MaxSamples]uint8
	next     uint8
	size     uint8
}

// NewSampleRing creates a ring of n samples (see Resize).
func NewSampleRing(n int) *SampleRing {
	r := &SampleRing{}
	r.Resize(n)
	return r
}

// Resize sets the window to n, forced odd and into [1, MaxSamples], and
// clears the ring.
func (r *SampleRing) Resize(n int) {
	if n < 1 {
		n = 1
	}
	if n > MaxSamples {
		n = MaxSamples
	}
	if n%2 == 0 {
		n--
	}
	r.size = uint8(n)
	r.Reset()
}

// Reset zeroes every reading and restores the identity order.
func (r *SampleRing) Reset() {
	for i := range r.readings {
		r.readings[i] = 0
		r.order[i] = uint8(i)
	}
	r.next = 0
}

// Len returns the window size.
func (r *SampleRing) Len() int {
	return int(r.size)
}

// Insert overwrites the oldest reading with v and moves that slot to its
// sorted position. Only the moved slot is compared, so the cost is bounded
// by the distance it travels.
func (r *SampleRing) Insert(v uint16) {
	slot := r.next
	r.readings[slot] = v

	n := int(r.size)
	k := 0
	for k < n && r.order[k] != slot {
		k++
	}

	for k > 0 && r.readings[r.order[k-1]] > v {
		r.order[k], r.order[k-1] = r.order[k-1], r.order[k]
		k--
	}
	for k < n-1 && r.readings[r.order[k+1]] < v {
		r.order[k], r.order[k+1] = r.order[k+1], r.order[k]
		k++
	}

	r.next++
	if r.next == r.size {
		r.next = 0
	}
}

// Median returns the middle reading. Zero means the ring has not filled
// past its midpoint since the last reset.
func (r *SampleRing) Median() uint16 {
	return r.readings[r.order[r.size/2]]
}

// Sorted appends the readings in ascending order to dst.
func (r *SampleRing) Sorted(dst []uint16) []uint16 {
	for k := 0; k < int(r.size); k++ {
		dst = append(dst, r.readings[r.order[k]])
	}
	return dst
}
