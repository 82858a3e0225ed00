// Package keyboard turns keystrokes read from the terminal into events, one
// event schema per letter.
package keyboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
	"github.com/vk/patchbay/internal/registry"
)

const PackageName = "Keyboard"

// Settings is the "package" block of Keyboard.
type Settings struct {
	// Raw puts a terminal stdin into raw mode so keys arrive unbuffered.
	Raw *bool `hcl:"raw,optional"`
}

// Module implements the registry.Module interface for this package.
type Module struct {
	// In is read for keystrokes. Defaults to os.Stdin.
	In io.Reader
}

func (m *Module) Register(r *registry.Registry) error {
	var s Settings
	if err := r.DecodeSettings(PackageName, &s); err != nil {
		return err
	}
	pkg, err := m.NewPackage(s)
	if err != nil {
		return err
	}
	return r.AddPackage(pkg)
}

// NewPackage builds the Keyboard package with the schemas "A" to "Z".
func (m *Module) NewPackage(s Settings) (*plugin.Package, error) {
	pkg := plugin.NewPackage(PackageName)
	for l := 'A'; l <= 'Z'; l++ {
		if err := pkg.AddSchema(node.NewEventSchema(string(l), buildKey, fireKey)); err != nil {
			return nil, err
		}
	}

	in := m.In
	if in == nil {
		in = os.Stdin
	}
	raw := s.Raw == nil || *s.Raw
	pkg.SetEngine(plugin.NewEngine(run, &input{r: in, raw: raw}, plugin.WithLockedThread()))
	return pkg, nil
}

func buildKey(b *node.Builder) {
	b.ExecOutput("Pressed")
	b.ExecOutput("Released")
	b.BoolOutput("Shift Pressed")
	b.BoolOutput("Ctrl Pressed")
	b.BoolOutput("Alt Pressed")
	b.BoolOutput("Meta Pressed")
}

func fireKey(io *node.IOProxy, k Key) (string, error) {
	io.SetBool("Shift Pressed", k.Shift)
	io.SetBool("Ctrl Pressed", k.Ctrl)
	io.SetBool("Alt Pressed", k.Alt)
	io.SetBool("Meta Pressed", k.Meta)
	if k.Released {
		return "Released", nil
	}
	return "Pressed", nil
}

type input struct {
	r   io.Reader
	raw bool
}

func run(ctx context.Context, ec *plugin.EngineContext) error {
	in, err := plugin.InitialState[*input](ec)
	if err != nil {
		return err
	}
	logger := ec.Logger()

	rawMode := false
	if f, ok := in.r.(*os.File); ok && in.raw && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return err
		}
		rawMode = true
		defer term.Restore(int(f.Fd()), state)
		logger.Info("⌨️ Keyboard in raw mode, Ctrl+C to quit")
	}

	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	// Read does not observe ctx; after cancel this goroutine exits on the next byte or EOF.
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := in.r.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				logger.Info("Keyboard input closed")
				return nil
			}
			return err
		case req := <-ec.Requests():
			req.Drop()
		case chunk := <-chunks:
			if rawMode && bytes.IndexByte(chunk, ctrlC) >= 0 {
				interrupt()
				continue
			}
			for _, k := range decode(chunk) {
				if err := ec.Emit(ctx, string(k.Letter), k); err != nil {
					return err
				}
			}
		}
	}
}

// interrupt delivers the SIGINT raw mode swallowed.
func interrupt() {
	if p, err := os.FindProcess(os.Getpid()); err == nil {
		_ = p.Signal(os.Interrupt)
	}
}
