package client

import (
	"errors"
	"io"
	"sync"
)

// ProgressReader reports the fraction of total bytes read so far. The
// callback receives values in [0, 1] and is called with 1 at EOF.
type ProgressReader struct {
	r     io.Reader
	total int64
	fn    func(float64)

	mu   sync.Mutex
	read int64
	done bool
}

func NewProgressReader(r io.Reader, total int64, fn func(float64)) *ProgressReader {
	return &ProgressReader{r: r, total: total, fn: fn}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)

	p.mu.Lock()
	p.read += int64(n)
	fraction := 1.0
	if p.total > 0 && p.read < p.total {
		fraction = float64(p.read) / float64(p.total)
	}
	finished := errors.Is(err, io.EOF) || p.read >= p.total
	report := p.fn != nil && (n > 0 || (finished && !p.done))
	if finished {
		p.done = true
	}
	p.mu.Unlock()

	if report {
		p.fn(fraction)
	}
	return n, err
}
