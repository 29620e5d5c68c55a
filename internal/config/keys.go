package config

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseKey parses a key binding as written in config.toml: a single
// character, "^X" for a control character, or "C-x"/"C+x" as an
// alternative control-character spelling. An empty string yields a nil
// binding (disabled).
func ParseKey(key string) ([]byte, error) {
	chars := []rune(key)

	switch len(chars) {
	case 0:
		return nil, nil

	case 1:
		return []byte(string(chars[0])), nil

	case 2:
		if chars[0] == '^' && unicode.IsLetter(chars[1]) && chars[1] <= unicode.MaxASCII {
			return []byte{byte(unicode.ToUpper(chars[1])) - 0x40}, nil
		}

	case 3:
		if unicode.ToUpper(chars[0]) == 'C' &&
			strings.ContainsRune("+-", chars[1]) &&
			unicode.IsLetter(chars[2]) && chars[2] <= unicode.MaxASCII {
			return []byte{byte(unicode.ToUpper(chars[2])) - 0x40}, nil
		}
	}

	return nil, fmt.Errorf("config: invalid key definition %q", key)
}
