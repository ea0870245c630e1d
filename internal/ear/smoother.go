package ear

// DefaultWindow is the number of trailing samples averaged by a Smoother.
const DefaultWindow = 5

// Smoother is a trailing moving average over a bounded FIFO of raw samples.
type Smoother struct {
	window  int
	samples []float64
}

// NewSmoother creates a smoother; a non-positive window falls back to DefaultWindow.
func NewSmoother(window int) *Smoother {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Smoother{
		window:  window,
		samples: make([]float64, 0, window),
	}
}

// Add appends a raw sample, evicts the oldest once the window is full,
// and returns the mean of the current contents.
func (s *Smoother) Add(sample float64) float64 {
	s.samples = append(s.samples, sample)
	if len(s.samples) > s.window {
		s.samples = s.samples[1:]
	}

	if len(s.samples) == 0 {
		return sample
	}

	var sum float64
	for _, v := range s.samples {
		sum += v
	}
	return sum / float64(len(s.samples))
}

// Len reports how many samples are currently held.
func (s *Smoother) Len() int {
	return len(s.samples)
}

// Reset drops all held samples.
func (s *Smoother) Reset() {
	s.samples = s.samples[:0]
}
