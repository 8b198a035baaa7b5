package grpc

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthInterceptor guards the valuation service with a static API token.
// Calls to other services registered on the same server pass through.
func AuthInterceptor(validToken string) grpc.UnaryServerInterceptor {
	want := []byte(validToken)
	guarded := "/" + ServiceName + "/"

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !strings.HasPrefix(info.FullMethod, guarded) {
			return handler(ctx, req)
		}

		token, err := tokenFromContext(ctx)
		if err != nil {
			return nil, err
		}
		if subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			return nil, status.Errorf(codes.Unauthenticated, "invalid token for %s", info.FullMethod)
		}

		return handler(ctx, req)
	}
}

// tokenFromContext reads the authorization metadata, bare or "Bearer <token>"
func tokenFromContext(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}

	values := md.Get("authorization")
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return "", status.Error(codes.Unauthenticated, "missing authorization header")
	}

	token := strings.TrimSpace(values[0])
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "bearer") {
		token = strings.TrimSpace(rest)
	}
	return token, nil
}

// LoggingInterceptor logs every unary call with its status code and latency
func LoggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		event := log.Info()
		switch code {
		case codes.OK:
		case codes.Internal, codes.DataLoss, codes.Unknown:
			event = log.Error().Err(err)
		default:
			event = log.Warn().Err(err)
		}

		event.
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("latency", time.Since(start)).
			Msg("gRPC call")

		return resp, err
	}
}
