package aggregate

// Sampler selects every Nth raw message.
type Sampler struct {
	rate    uint64
	counter uint64
}

// NewSampler returns a Sampler keeping one message in rate. A rate below 2
// keeps every message.
func NewSampler(rate int) *Sampler {
	if rate < 1 {
		rate = 1
	}
	return &Sampler{rate: uint64(rate)}
}

// Take counts one raw message and reports whether it should be processed.
func (s *Sampler) Take() bool {
	s.counter++
	return s.counter%s.rate == 0
}

// Active reports whether messages are being skipped.
func (s *Sampler) Active() bool {
	return s.rate > 1
}

// Rate returns N.
func (s *Sampler) Rate() int {
	return int(s.rate)
}
