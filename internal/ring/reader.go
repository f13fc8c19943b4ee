package ring

import "io"

// WriteTo streams the live stream from flat offset from to its end.
// Nothing is written when from is at or past the end.
func (s *Store) WriteTo(w io.Writer, from int64) (int64, error) {
	loc, ok := s.FindByFlatOffset(from)
	if !ok {
		return 0, nil
	}

	var written int64
	for i, n := loc.Index, s.Len(); i < n; i++ {
		p := s.slots[s.at(i)].Bytes()
		if i == loc.Index {
			p = p[loc.Offset:]
		}
		m, err := w.Write(p)
		written += int64(m)
		if err != nil {
			return written, err
		}
		if m < len(p) {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// Bytes returns a copy of the live stream from flat offset from to its end.
func (s *Store) Bytes(from int64) []byte {
	var buf sliceWriter
	_, _ = s.WriteTo(&buf, from)
	return buf
}

type sliceWriter []byte

func (b *sliceWriter) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}
