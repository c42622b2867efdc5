package session

import (
	"math/rand/v2"
	"strings"
)

const (
	nameConsonants = "BDFGKLMNPRSTVZ"
	nameVowels     = "AEIOU"
)

// syllableName builds an easy to read-aloud code such as "BAKOTI".
func syllableName(syllables int) string {
	if syllables <= 0 {
		syllables = 3
	}
	var b strings.Builder
	for i := 0; i < syllables; i++ {
		b.WriteByte(nameConsonants[rand.IntN(len(nameConsonants))])
		b.WriteByte(nameVowels[rand.IntN(len(nameVowels))])
	}
	return b.String()
}
