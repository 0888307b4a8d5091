package content

import (
	"io"
)

// ChunkSize is the read size used when moving bytes between streams.
const ChunkSize = 4 << 10 // 4KB

// Transfer copies src to dst in ChunkSize reads until src reports io.EOF.
// It returns the number of bytes written. Read and write failures are
// returned immediately as ErrIO; whatever was already written stays in dst.
func Transfer(dst io.Writer, src io.Reader) (int64, error) {
	chunk := make([]byte, ChunkSize)

	var written int64
	for {
		n, rerr := src.Read(chunk)
		if n > 0 {
			m, werr := dst.Write(chunk[:n])
			written += int64(m)
			if werr != nil {
				return written, ioError("transfer write", "", werr)
			}
			if m != n {
				return written, ioError("transfer write", "", io.ErrShortWrite)
			}
		}

		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, ioError("transfer read", "", rerr)
		}
	}
}
