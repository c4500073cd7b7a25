package allocator

import (
	"errors"
	"fmt"
	"math"
)

// DefaultAlphabet 默认字母表，A 为零值字符
const DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultWidth 默认标识符长度
const DefaultWidth = 5

// Encoder maps integers in [0, A^width) to fixed-width strings over an alphabet.
type Encoder struct {
	alphabet []byte
	index    map[byte]int64
	width    int
	size     int64
}

// NewEncoder create an encoder for the alphabet and width
func NewEncoder(alphabet string, width int) (*Encoder, error) {
	if len(alphabet) < 2 {
		return nil, errors.New("alphabet requires at least 2 characters")
	}

	if width < 1 {
		return nil, errors.New("width must be positive")
	}

	index := make(map[byte]int64, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		if _, ok := index[alphabet[i]]; ok {
			return nil, fmt.Errorf("duplicate character %q in alphabet", alphabet[i])
		}
		index[alphabet[i]] = int64(i)
	}

	base := int64(len(alphabet))
	size := int64(1)
	for i := 0; i < width; i++ {
		if size > math.MaxInt64/base {
			return nil, fmt.Errorf("namespace %d^%d overflows int64", base, width)
		}
		size *= base
	}

	return &Encoder{
		alphabet: []byte(alphabet),
		index:    index,
		width:    width,
		size:     size,
	}, nil
}

// Size 命名空间大小 A^width
func (e *Encoder) Size() int64 {
	return e.size
}

// Alphabet returns the alphabet, zero character first
func (e *Encoder) Alphabet() string {
	return string(e.alphabet)
}

// Width 标识符长度
func (e *Encoder) Width() int {
	return e.width
}

// Encode returns the base-A representation of n, left padded with the zero character.
// n must lie in [0, Size()).
func (e *Encoder) Encode(n int64) string {
	base := int64(len(e.alphabet))
	buf := make([]byte, e.width)
	for i := e.width - 1; i >= 0; i-- {
		buf[i] = e.alphabet[n%base]
		n /= base
	}

	return string(buf)
}

// Decode is the inverse of Encode.
func (e *Encoder) Decode(id string) (int64, error) {
	if len(id) != e.width {
		return 0, fmt.Errorf("identifier %q: expected %d characters", id, e.width)
	}

	base := int64(len(e.alphabet))
	var n int64
	for i := 0; i < len(id); i++ {
		digit, ok := e.index[id[i]]
		if !ok {
			return 0, fmt.Errorf("identifier %q: invalid character %q", id, id[i])
		}
		n = n*base + digit
	}

	return n, nil
}
