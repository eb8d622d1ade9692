package trk

import (
	"fmt"
	"runtime"
	"strings"
)

// Location identifies a source call site. It's a comparable value, suitable
// as a map key, and is treated as an atom: two locations are the same call
// site if and only if they are equal as values. Locations are expected to be
// captured once, at a task construction site, and passed around by value.
type Location struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Here captures the location of the caller.
func Here() Location {
	return Caller(1)
}

// Caller captures a location skip frames above the caller. Caller(0) is
// equivalent to [Here] from the perspective of the function invoking it.
func Caller(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Location{}
	}

	var function string
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
	}

	return Location{
		Function: function,
		File:     file,
		Line:     line,
	}
}

// IsZero returns true if the location doesn't identify a call site.
func (loc Location) IsZero() bool {
	return loc == Location{}
}

// String returns e.g. "pkg.Func (file.go:123)".
func (loc Location) String() string {
	if loc.IsZero() {
		return "unknown"
	}
	return fmt.Sprintf("%s (%s:%d)", funcNameOnly(loc.Function), pathSuffix(loc.File), loc.Line)
}

//
//
//

func funcNameOnly(name string) string {
	const pathSep = "/"
	if i := strings.LastIndex(name, pathSep); i != -1 {
		name = name[i+len(pathSep):]
	}
	return name
}

func pathSuffix(path string) string {
	const pathSep = "/"
	lastSep := strings.LastIndex(path, pathSep)
	if lastSep == -1 {
		return path
	}
	return path[lastSep+1:]
}
