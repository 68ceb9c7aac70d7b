package pty

import (
	"strconv"
	"strings"
)

// keyMapping binds a symbolic key name to the bytes a terminal sends for it.
type keyMapping struct {
	name string
	seq  string
}

// keyMappings is ordered for display; lookups go through keyIndex.
var keyMappings = []keyMapping{
	{"enter", "\r"},
	{"newline", "\n"},
	{"tab", "\t"},
	{"esc", "\x1b"},

	// Arrow keys (VT100)
	{"up", "\x1b[A"},
	{"down", "\x1b[B"},
	{"right", "\x1b[C"},
	{"left", "\x1b[D"},

	{"home", "\x1b[H"},
	{"end", "\x1b[F"},
	{"pageup", "\x1b[5~"},
	{"pagedown", "\x1b[6~"},
	{"insert", "\x1b[2~"},
	{"delete", "\x1b[3~"},

	// F1-F4 are SS3, F5-F12 use xterm numeric codes (16 and 22 are skipped)
	{"f1", "\x1bOP"},
	{"f2", "\x1bOQ"},
	{"f3", "\x1bOR"},
	{"f4", "\x1bOS"},
	{"f5", "\x1b[15~"},
	{"f6", "\x1b[17~"},
	{"f7", "\x1b[18~"},
	{"f8", "\x1b[19~"},
	{"f9", "\x1b[20~"},
	{"f10", "\x1b[21~"},
	{"f11", "\x1b[23~"},
	{"f12", "\x1b[24~"},

	{"ctrl-c", "\x03"},
	{"ctrl-d", "\x04"},
	{"ctrl-z", "\x1a"},

	{"shift-tab", "\x1b[Z"},
	// xterm modifyOtherKeys; not every program understands it
	{"shift-enter", "\x1b[13;2u"},
}

var keyIndex = buildKeyIndex()

func buildKeyIndex() map[string]string {
	index := make(map[string]string, len(keyMappings))
	for _, m := range keyMappings {
		index[m.name] = m.seq
	}
	return index
}

// LookupKey returns the byte sequence for a symbolic key name.
// Names are case-insensitive.
func LookupKey(name string) ([]byte, bool) {
	seq, ok := keyIndex[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return []byte(seq), true
}

// KeyNames returns the supported key names in table order.
func KeyNames() []string {
	names := make([]string, len(keyMappings))
	for i, m := range keyMappings {
		names[i] = m.name
	}
	return names
}

// RenderKeyTable returns one "name<TAB>sequence" line per key, with the
// sequence Go-quoted so control bytes stay readable.
func RenderKeyTable() string {
	var sb strings.Builder
	for _, m := range keyMappings {
		sb.WriteString(m.name)
		sb.WriteByte('\t')
		sb.WriteString(strconv.Quote(m.seq))
		sb.WriteByte('\n')
	}
	return sb.String()
}
