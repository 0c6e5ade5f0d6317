package stackdriver

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// StackTrace renders the innermost stack trace recorded in err's chain,
// or returns "" when none of the wrapped errors carries one.
func StackTrace(err error) string {
	var trace errors.StackTrace
	for ; err != nil; err = errors.Unwrap(err) {
		if st, ok := err.(stackTracer); ok {
			trace = st.StackTrace()
		}
	}
	if len(trace) == 0 {
		return ""
	}
	return strings.TrimPrefix(fmt.Sprintf("%+v", trace), "\n")
}
