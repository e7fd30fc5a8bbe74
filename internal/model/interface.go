package model

// Parser reads a log file into an Invocation. The store and the selector
// depend on this interface so tests can substitute canned records.
type Parser interface {
	// ReadInvocation parses the log file at path. The file is closed before
	// returning.
	ReadInvocation(path string) (*Invocation, error)
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(path string) (*Invocation, error)

// ReadInvocation calls f(path).
func (f ParserFunc) ReadInvocation(path string) (*Invocation, error) {
	return f(path)
}
