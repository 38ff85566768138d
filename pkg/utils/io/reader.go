package io

import (
	"io"
	"sync"
	"sync/atomic"
)

// ProgressReader counts bytes read through it and triggers callbacks on the end of the stream.
//
// Count is safe to be called from other goroutines while reading.
type ProgressReader interface {
	io.Reader

	// Count returns bytes read so far.
	Count() int64

	// OnEnd registers a callback which is called once when the base reader reaches EOF.
	//
	// If EOF has been reached already, callback is called immediately.
	OnEnd(func())
}

type progressReader struct {
	base      io.Reader
	count     atomic.Int64
	onEnd     []func()
	exhausted bool
	mux       sync.Mutex
}

func NewProgressReader(base io.Reader) ProgressReader {
	return &progressReader{base: base}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.base.Read(b)
	p.count.Add(int64(n))

	if err == io.EOF {
		p.mux.Lock()
		defer p.mux.Unlock()
		if !p.exhausted {
			p.exhausted = true
			for _, f := range p.onEnd {
				f()
			}
			p.onEnd = nil
		}
	}
	return n, err
}

func (p *progressReader) Count() int64 {
	return p.count.Load()
}

func (p *progressReader) OnEnd(callback func()) {
	p.mux.Lock()
	defer p.mux.Unlock()

	if p.exhausted {
		callback()
		return
	}
	p.onEnd = append(p.onEnd, callback)
}
