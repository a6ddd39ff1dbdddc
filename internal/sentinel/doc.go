// Package sentinel defines a string-backed error type for declaring
// immutable sentinel errors as constants.
package sentinel
