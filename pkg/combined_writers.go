package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans every Write out to all given writers. A failing
// writer does not stop the others; their errors are combined.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{writers: writers}
}

func (cw *CombinedWriter) Write(p []byte) (n int, err error) {
	for _, w := range cw.writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if written > n {
			n = written
		}
	}
	return n, err
}

// Close closes every underlying writer that is also a closer.
func (cw *CombinedWriter) Close() error {
	var err error
	for _, w := range cw.writers {
		if closer, ok := w.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}
	return err
}
