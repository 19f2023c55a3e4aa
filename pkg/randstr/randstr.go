package randstr

import "math/rand/v2"

type generator struct {
	letters []byte
}

func New(letters []byte) *generator {
	return &generator{letters: letters}
}

func (g generator) GenerateRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = g.letters[rand.IntN(len(g.letters))]
	}

	return string(b)
}
