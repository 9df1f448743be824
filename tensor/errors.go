package tensor

// Error is the error type returned by this package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return err.message
}

// Decorate adds the caller's name to the error and returns the trace.
func (err Error) Decorate(dec string) []string {
	err.deco = append(err.deco, dec)
	return err.deco
}

func (err Error) Critical() bool { return err.critical }

// PanicMsg is the value passed to panic on programming errors such as
// indexing a row with the wrong shape.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }
