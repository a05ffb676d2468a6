package mid

import (
	"context"
	"errors"
	"net/http"
	"path"

	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Errors handles errors coming out of the call chain. Anything that is not
// an errs.Error becomes an internal error.
func Errors(log *logger.Logger) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			resp := next(ctx, r)
			err := checkIsError(resp)
			if err == nil {
				return resp
			}

			var appErr *errs.Error
			if !errors.As(err, &appErr) {
				appErr = errs.New(errs.Internal, err)
			}

			log.Error(ctx, "handled error during request",
				"err", err,
				"source_err_file", path.Base(appErr.FileName),
				"source_err_func", path.Base(appErr.FuncName))

			span := trace.SpanFromContext(ctx)
			span.SetAttributes(attribute.String("error", err.Error()))

			if appErr.Code.Equal(errs.Internal) {
				appErr = &errs.Error{
					Code:     errs.InternalOnlyLog,
					Message:  appErr.Message,
					FuncName: appErr.FuncName,
					FileName: appErr.FileName,
				}
			}

			return appErr
		}

		return h
	}

	return m
}
