package logging

// ProgressSampler suppresses repetitive progress logs, emitting only when the
// completion percentage crosses a new bucket boundary.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 10%).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. Negative
// percentages mean "unknown" and never log.
func (s *ProgressSampler) ShouldLog(percent float64) bool {
	if s == nil {
		return true
	}
	if percent < 0 {
		return false
	}
	if percent > 100 {
		percent = 100
	}
	bucket := int(percent / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		return true
	}
	return false
}

// Milestone returns the percentage at the start of the most recently emitted
// bucket, or -1 before the first emission.
func (s *ProgressSampler) Milestone() float64 {
	if s == nil || s.lastBucket < 0 {
		return -1
	}
	return float64(s.lastBucket) * s.bucketSize
}

// Reset clears the sampler state (e.g. when a new pass starts).
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = -1
}
