package resource

import (
	"context"
	"io"
)

// MeteredReader wraps an io.Reader and charges the governor's bandwidth
// budget for the bytes actually read. Charging after the read keeps short
// reads from being overbilled; the average rate still converges on the
// configured limit.
type MeteredReader struct {
	ctx context.Context
	g   *Governor
	r   io.Reader
}

// NewMeteredReader creates a MeteredReader. A nil governor passes reads
// through unmetered.
func NewMeteredReader(ctx context.Context, g *Governor, r io.Reader) *MeteredReader {
	return &MeteredReader{ctx: ctx, g: g, r: r}
}

func (m *MeteredReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	if n > 0 {
		if berr := m.g.AcquireBandwidth(m.ctx, n); berr != nil && err == nil {
			err = berr
		}
	}
	return n, err
}

// MeteredWriter wraps an io.Writer and charges the governor's bandwidth
// budget before each write, since the write size is known up front.
type MeteredWriter struct {
	ctx context.Context
	g   *Governor
	w   io.Writer
}

// NewMeteredWriter creates a MeteredWriter. A nil governor passes writes
// through unmetered.
func NewMeteredWriter(ctx context.Context, g *Governor, w io.Writer) *MeteredWriter {
	return &MeteredWriter{ctx: ctx, g: g, w: w}
}

func (m *MeteredWriter) Write(p []byte) (int, error) {
	if err := m.g.AcquireBandwidth(m.ctx, len(p)); err != nil {
		return 0, err
	}
	return m.w.Write(p)
}
