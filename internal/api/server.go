package api

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kolkov/launcher/internal/service"
)

// Server implements LauncherServer on top of a ModuleService. Lifecycle
// failures are reported inside the response, not as RPC errors.
type Server struct {
	svc service.ModuleService
}

func NewServer(svc service.ModuleService) *Server {
	return &Server{svc: svc}
}

func moduleName(req *wrapperspb.StringValue) (string, error) {
	name := strings.TrimSpace(req.GetValue())
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", status.Errorf(codes.InvalidArgument, "invalid module name %q", req.GetValue())
	}
	return name, nil
}

func (s *Server) Start(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	name, err := moduleName(req)
	if err != nil {
		return nil, err
	}
	return resultStruct(s.svc.Start(ctx, name)), nil
}

func (s *Server) Stop(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	name, err := moduleName(req)
	if err != nil {
		return nil, err
	}
	return resultStruct(s.svc.Stop(ctx, name)), nil
}

func (s *Server) Restart(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	name, err := moduleName(req)
	if err != nil {
		return nil, err
	}
	return resultsStruct(s.svc.Restart(ctx, name)), nil
}

func (s *Server) StartAll(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return resultsStruct(s.svc.StartAll(ctx)), nil
}

func (s *Server) StopAll(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return resultsStruct(s.svc.StopAll(ctx)), nil
}

func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return modulesStruct(s.svc.Status(ctx)), nil
}

// loggingInterceptor logs every call with its method and duration.
func loggingInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := log.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"duration": time.Since(start),
		})
		if err != nil {
			entry.WithError(err).Warn("control call failed")
		} else {
			entry.Debug("control call")
		}
		return resp, err
	}
}

// Serve runs the control API on lis until ctx is cancelled.
func Serve(ctx context.Context, lis net.Listener, svc service.ModuleService, log logrus.FieldLogger) error {
	s := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(log)))
	RegisterLauncherServer(s, NewServer(svc))

	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	log.WithField("addr", lis.Addr().String()).Info("control API listening")
	if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
