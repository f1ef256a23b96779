package logger

import "strings"

// Level orders log messages by severity. A logger set to some level drops
// every message below it.
type Level uint32

// Levels from the most verbose to LevelOff, which silences a logger.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

type levelNames struct {
	tag  string
	name string
}

// levelTable is indexed by Level. The tag is printed in log lines, and both
// spellings are accepted by LevelFromString.
var levelTable = [...]levelNames{
	LevelTrace:    {tag: "TRC", name: "trace"},
	LevelDebug:    {tag: "DBG", name: "debug"},
	LevelInfo:     {tag: "INF", name: "info"},
	LevelWarn:     {tag: "WRN", name: "warn"},
	LevelError:    {tag: "ERR", name: "error"},
	LevelCritical: {tag: "CRT", name: "critical"},
	LevelOff:      {tag: "OFF", name: "off"},
}

// LevelFromString parses a level name such as "debug" or a tag such as
// "DBG", ignoring case. Unknown input yields LevelInfo and false.
func LevelFromString(s string) (Level, bool) {
	s = strings.ToLower(s)
	for level, names := range levelTable {
		if s == names.name || s == strings.ToLower(names.tag) {
			return Level(level), true
		}
	}
	return LevelInfo, false
}

// String returns the three letter tag used in log lines. Anything at or
// above LevelOff prints as "OFF".
func (l Level) String() string {
	if l >= LevelOff {
		return levelTable[LevelOff].tag
	}
	return levelTable[l].tag
}
