package linker

import "io"

const copyBufferSize = 256 * 1024

func copyBuffer(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyBufferSize)
	return io.CopyBuffer(dst, src, buf)
}
