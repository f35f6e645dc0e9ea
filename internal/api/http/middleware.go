package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/observability"
	"github.com/spec-kit/monitor-report/internal/service"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(domainErr.Code)
				logFailure(logger, metrics, c, err, domainErr)

				_ = c.Status(domainErr.HTTPStatus).JSON(domainErr.Body())
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also maps fiber's own errors, such as unmatched routes.
func toDomainError(err error) *apperrors.DomainError {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return apperrors.ToDomainError(apperrors.NewNotFound("route", nil))
		case fiber.StatusMethodNotAllowed:
			return apperrors.NewDomainError(apperrors.CodeNotFound, fe.Message, fe.Code, nil)
		default:
			if fe.Code < fiber.StatusInternalServerError {
				return apperrors.NewDomainError(apperrors.CodeValidation, fe.Message, fe.Code, nil)
			}
		}
	}
	return apperrors.ToDomainError(err)
}

// logFailure never logs request bodies or headers; only the internal reason.
func logFailure(logger *zap.Logger, metrics *observability.Metrics, c *fiber.Ctx, err error, domainErr *apperrors.DomainError) {
	switch {
	case domainErr.Code == apperrors.CodeUnauthenticated:
		reason := auth.FailureReason(err)
		if errors.Is(err, service.ErrInvalidCredentials) {
			reason = "invalid_login"
		}
		metrics.RecordAuthFailure(reason)
		logger.Info("authentication failed",
			zap.String("reason", reason),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()))
	case domainErr.Code == apperrors.CodeForbidden:
		fields := []zap.Field{zap.String("path", c.Path()), zap.String("message", domainErr.Message)}
		if identity := auth.IdentityFromContext(c); identity != nil {
			fields = append(fields, zap.Int64("user_id", identity.SubjectID), zap.String("role", identity.Role.String()))
		}
		logger.Info("authorization denied", fields...)
	case domainErr.HTTPStatus >= fiber.StatusInternalServerError:
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
	}
}
