package mcpstdio

import (
	"bufio"
	"io"
)

// frameEmitter writes one frame per line and flushes after each, so a
// response is never observed partially by the client.
type frameEmitter struct {
	w *bufio.Writer
}

func newFrameEmitter(w io.Writer) *frameEmitter {
	return &frameEmitter{w: bufio.NewWriter(w)}
}

// Emit writes frame followed by a newline and flushes.
func (e *frameEmitter) Emit(frame []byte) error {
	if _, err := e.w.Write(frame); err != nil {
		return err
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return err
	}
	return e.w.Flush()
}
