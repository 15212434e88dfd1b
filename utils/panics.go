package utils

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// RecoverWithError turns a panic of the deferring function into its returned error and logs the stack.
func RecoverWithError(err *error, log *zerolog.Logger) {
	rv := recover()
	if rv == nil {
		return
	}
	*err = fmt.Errorf("recovered from panic: %v", rv)
	if log != nil {
		log.Error().Str("stack", string(debug.Stack())).Msgf("Recovered from panic: %v", rv)
	}
}
