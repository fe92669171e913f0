package log

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// appendError records err under key and adds the stacktrace captured by
// cockroachdb/errors, when present.
func appendError(ev *zerolog.Event, key string, err error) *zerolog.Event {
	ev = ev.AnErr(key, err)
	if stacktrace := extractStacktrace(err); stacktrace != "" {
		ev = ev.Str(StacktraceAttrKey, stacktrace)
	}
	return ev
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
