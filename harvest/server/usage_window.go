package server

// UsageWindow is a fixed-capacity FIFO of load samples, the oldest sample is
// evicted once it is full.
type UsageWindow struct {
	samples []float64
	size    int
}

func NewUsageWindow(size int) *UsageWindow {
	if size < 1 {
		size = 1
	}
	return &UsageWindow{samples: make([]float64, 0, size), size: size}
}

func (w *UsageWindow) Push(v float64) {
	if len(w.samples) == w.size {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:w.size-1]
	}
	w.samples = append(w.samples, v)
}

// Avg is 0 for an empty window.
func (w *UsageWindow) Avg() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w.samples {
		sum += v
	}
	return sum / float64(len(w.samples))
}

func (w *UsageWindow) Last() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	return w.samples[len(w.samples)-1]
}

func (w *UsageWindow) First() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	return w.samples[0]
}

func (w *UsageWindow) IsFull() bool {
	return len(w.samples) == w.size
}

func (w *UsageWindow) Len() int {
	return len(w.samples)
}

func (w *UsageWindow) Reset() {
	w.samples = w.samples[:0]
}
