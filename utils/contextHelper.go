package utils

import (
	"context"

	"github.com/mmdatafocus/backoffice_backend/appctx"
	"github.com/sirupsen/logrus"
)

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyClientIp      = appctx.ContextKeyClientIp
	ContextKeyRequestPath   = appctx.ContextKeyRequestPath
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetClientIpFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyClientIp)
}

func GetRequestPathFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRequestPath)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetClientIpInContext(ctx context.Context, clientIp string) context.Context {
	return appctx.Set(ctx, ContextKeyClientIp, clientIp)
}

func SetRequestPathInContext(ctx context.Context, path string) context.Context {
	return appctx.Set(ctx, ContextKeyRequestPath, path)
}

// LogFieldsFromContext collects the request-scoped values worth attaching to log lines.
func LogFieldsFromContext(ctx context.Context) logrus.Fields {
	fields := logrus.Fields{}
	if v, ok := GetCorrelationIdFromContext(ctx); ok && v != "" {
		fields["correlation_id"] = v
	}
	if v, ok := GetRequestPathFromContext(ctx); ok && v != "" {
		fields["path"] = v
	}
	if v, ok := GetClientIpFromContext(ctx); ok && v != "" {
		fields["client_ip"] = v
	}
	return fields
}
