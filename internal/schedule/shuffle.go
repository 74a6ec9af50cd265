package schedule

// prngIncrement is the odd constant added to the generator state per draw.
const prngIncrement uint32 = 0x6D2B79F5

// prng is a 32-bit state generator. It is fast and tiny, not secure.
// All arithmetic stays in uint32 so results are identical on every platform.
type prng struct {
	state uint32
}

func newPRNG(seed int64) *prng {
	return &prng{state: uint32(seed)}
}

// next returns a value in [0, 1).
func (r *prng) next() float64 {
	r.state += prngIncrement
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// ShuffleIndices returns a seeded permutation of [0, count).
func ShuffleIndices(count int, seed int64) []int {
	if count < 0 {
		count = 0
	}
	perm := make([]int, count)
	for i := range perm {
		perm[i] = i
	}
	if count <= 1 {
		return perm
	}

	r := newPRNG(seed)
	for i := count - 1; i > 0; i-- {
		j := int(r.next() * float64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// ShuffleItems returns a seeded permutation of items. The input is not modified.
func ShuffleItems(items []ContentItem, seed int64) []ContentItem {
	out := make([]ContentItem, len(items))
	for i, src := range ShuffleIndices(len(items), seed) {
		out[i] = items[src]
	}
	return out
}

// GenerateSeed derives a non-negative seed from a channel id and an anchor
// time, so the same channel and day reproduce the same order after restart.
func GenerateSeed(channelID string, anchorMs int64) int64 {
	var h uint32
	for i := 0; i < len(channelID); i++ {
		h = h*31 + uint32(channelID[i])
	}

	a := uint64(anchorMs)
	x := h ^ uint32(a) ^ uint32(a>>32)

	// finalizer so nearby anchors land far apart
	x ^= x >> 16
	x *= 0x7FEB352D
	x ^= x >> 15
	x *= 0x846CA68B
	x ^= x >> 16

	return int64(x)
}
