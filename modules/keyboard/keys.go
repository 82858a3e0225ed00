package keyboard

// Key is one decoded keystroke.
type Key struct {
	Letter   rune // 'A'..'Z'
	Released bool
	Shift    bool
	Ctrl     bool
	Alt      bool
	Meta     bool
}

const (
	esc   = 0x1b
	ctrlC = 0x03
)

// decode turns raw terminal bytes into letter keystrokes. Bytes that are
// not letters are skipped, as are CSI escape sequences.
func decode(buf []byte) []Key {
	var keys []Key
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		alt := false
		if b == esc && i+1 < len(buf) {
			if buf[i+1] == '[' {
				i += 2
				for i < len(buf) && (buf[i] < 0x40 || buf[i] > 0x7e) {
					i++
				}
				continue
			}
			alt = true
			i++
			b = buf[i]
		}
		if k, ok := letter(b); ok {
			k.Alt = alt
			keys = append(keys, k)
		}
	}
	return keys
}

func letter(b byte) (Key, bool) {
	switch {
	case b >= 'a' && b <= 'z':
		return Key{Letter: rune(b - 'a' + 'A')}, true
	case b >= 'A' && b <= 'Z':
		return Key{Letter: rune(b), Shift: true}, true
	case b >= 1 && b <= 26 && b != '\t' && b != '\n' && b != '\r':
		return Key{Letter: rune(b - 1 + 'A'), Ctrl: true}, true
	}
	return Key{}, false
}
