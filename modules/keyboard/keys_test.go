package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   []byte
		want []Key
	}{
		{"lower case", []byte("a"), []Key{{Letter: 'A'}}},
		{"upper case is shift", []byte("Q"), []Key{{Letter: 'Q', Shift: true}}},
		{"control", []byte{0x01}, []Key{{Letter: 'A', Ctrl: true}}},
		{"escape prefix is alt", []byte{esc, 'x'}, []Key{{Letter: 'X', Alt: true}}},
		{"arrow keys are skipped", []byte{esc, '[', 'A', 'b'}, []Key{{Letter: 'B'}}},
		{"digits and enter are skipped", []byte("1\r\n2z"), []Key{{Letter: 'Z'}}},
		{"several", []byte("ab"), []Key{{Letter: 'A'}, {Letter: 'B'}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decode(tc.in))
		})
	}
}
