// Package apperrors provides the application error type used across the
// service. It extends the standard error interface with wrapping, HTTP
// status codes and message derivation, so packages can declare sentinel
// hierarchies and handlers can map failures onto responses without type
// switching.
package apperrors

// Error is the interface implemented by all application errors. Methods
// return Error so call sites can chain derivations.
type Error interface {
	error
	Unwrap() error // supports errors.Is / errors.As

	New(msg string) Error                  // fresh error using the current one as template
	Msg(msg string) Error                  // new message, wraps the original
	MsgErr(msg string, err ...error) Error // new message, wraps original plus extras
	Err(err ...error) Error                // attaches additional errors
	SetExpandError(bool) Error             // controls whether ErrorAll expands wrapped errors
	SetStatusCode(int) Error               // sets the HTTP status code
	StatusCode() int                       // current HTTP status code
	ErrorAll() string                      // message including wrapped errors when expanded
	UnwrapAll() []error                    // all wrapped errors
}
