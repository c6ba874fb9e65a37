package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	mlerrors "github.com/YuminosukeSato/mlkit/pkg/errors"
)

// ErrFmtHandler decorates records carrying an ErrAttr with the error's
// cockroachdb stack trace and its mlkit error code.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with an ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var found error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		if err, ok := attr.Value.Any().(error); ok {
			found = err
		}
		return false
	})
	if found == nil {
		return eh.handler.Handle(ctx, r)
	}
	if st := extractStacktrace(found); st != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, st))
	}
	if code := ErrorCode(found); code != "" {
		r.AddAttrs(slog.String(ErrorCodeKey, code))
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func extractStacktrace(err error) string {
	if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
		return details[0]
	}
	return ""
}

// ErrorCode maps an error from pkg/errors to one of the Error* codes, or
// returns "" for errors outside the taxonomy.
func ErrorCode(err error) string {
	var (
		notFitted *mlerrors.NotFittedError
		dim       *mlerrors.DimensionError
		invalidK  *mlerrors.InvalidKError
		metric    *mlerrors.UnknownMetricError
		invalid   *mlerrors.ValidationError
		unstable  *mlerrors.NumericalInstabilityError
		conv      *mlerrors.ConvergenceWarning
		panicked  *mlerrors.PanicError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFitted):
		return ErrorNotFitted
	case errors.As(err, &dim):
		return ErrorDimensionMismatch
	case errors.Is(err, mlerrors.ErrEmptyData):
		return ErrorEmptyData
	case errors.As(err, &invalidK), errors.As(err, &metric), errors.As(err, &invalid):
		return ErrorInvalidParameter
	case errors.As(err, &unstable):
		return ErrorNumericalInstability
	case errors.As(err, &conv):
		return ErrorConvergence
	case errors.As(err, &panicked):
		return ErrorPanic
	}
	return ""
}
