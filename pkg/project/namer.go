package project

import "unicode"

// Namer derives an XML-safe local name from a tag name (spec §4.5): the
// first character is prefixed with "T" if it is a digit; every character is
// kept if ASCII-alphanumeric, otherwise replaced via a pluggable mapper.
type Namer struct {
	// Replace maps a non-alphanumeric rune to its replacement. Defaults to
	// always returning '_' when nil.
	Replace func(r rune) rune
}

// NewNamer builds a Namer with the default '_' replacement mapper.
func NewNamer() *Namer {
	return &Namer{}
}

func (n *Namer) replace(r rune) rune {
	if n.Replace != nil {
		return n.Replace(r)
	}
	return '_'
}

func (n *Namer) sanitize(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	default:
		return n.replace(r)
	}
}

// ElementName maps a tag name to the local name of the element the
// projector inserts for annotations carrying that tag.
func (n *Namer) ElementName(tagName string) string {
	if tagName == "" {
		return "_"
	}
	runes := []rune(tagName)
	out := make([]rune, 0, len(runes)+1)
	if unicode.IsDigit(runes[0]) {
		out = append(out, 'T')
	}
	out = append(out, n.sanitize(runes[0]))
	for _, r := range runes[1:] {
		out = append(out, n.sanitize(r))
	}
	return string(out)
}
