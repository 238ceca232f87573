package config

import (
	"strings"
	"unicode"
)

// ColorChar is the section sign Minecraft uses for formatting codes.
const ColorChar = '§'

const colorCodes = "0123456789AaBbCcDdEeFfKkLlMmNnOoRrXx"

// TranslateColorCodes replaces alt followed by a formatting code with the
// section sign, so "&cHi" becomes "§cHi".
func TranslateColorCodes(alt rune, s string) string {
	r := []rune(s)
	for i := 0; i < len(r)-1; i++ {
		if r[i] == alt && strings.ContainsRune(colorCodes, r[i+1]) {
			r[i] = ColorChar
			r[i+1] = unicode.ToLower(r[i+1])
		}
	}
	return string(r)
}
