// FILE: src/internal/core/entry.go
package core

// Entry is one debug entry collected during a unit of work and shipped as a table.
// Keys are capitalized for compatibility with existing console tables.
type Entry struct {
	Time      float64    `json:"Time"` // seconds since unit-of-work start
	Level     Status     `json:"Level"`
	Comment   string     `json:"Comment"`
	Function  string     `json:"Function"`
	File      string     `json:"File"`
	Line      int        `json:"Line"`
	Exception *Exception `json:"Exception"`
}

// Exception describes an error attached to an Entry
type Exception struct {
	Message string   `json:"message"`
	File    string   `json:"file"`
	Line    int      `json:"line"`
	Trace   []string `json:"trace"`
}
