package ttydriver

import (
	"io"
	"os"
)

// pipeBridge copies bytes between /dev/tty and a pair of pipes on a
// background goroutine each, working around unreliable kqueue polling
// of /dev/tty on macOS. The rest of the driver reads/writes the pipe
// ends instead of the tty fd directly.
type pipeBridge struct {
	tty *os.File

	readOut *os.File // driver reads tty output from here
	writeIn *os.File // driver writes keystrokes to here
}

func newPipeBridge(tty *os.File) (*pipeBridge, error) {
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	inR, inW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, err
	}

	b := &pipeBridge{tty: tty, readOut: outR, writeIn: inW}

	go func() {
		io.Copy(outW, tty)
		outW.Close()
	}()
	go func() {
		io.Copy(tty, inR)
		inR.Close()
	}()

	return b, nil
}

func (b *pipeBridge) Read(p []byte) (int, error)  { return b.readOut.Read(p) }
func (b *pipeBridge) Write(p []byte) (int, error) { return b.writeIn.Write(p) }

func (b *pipeBridge) Close() error {
	b.readOut.Close()
	b.writeIn.Close()
	return b.tty.Close()
}
