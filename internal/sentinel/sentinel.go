package sentinel

// Error is a const-friendly error implementation. Declaring sentinels as
// constants of this type (rather than vars built with errors.New) makes
// them immutable and keeps them usable in const blocks.
//
// The type is comparable, so errors.Is matches it through wrapped chains
// without a custom Is method.
type Error string

var _ error = Error("")

func (e Error) Error() string {
	return string(e)
}
