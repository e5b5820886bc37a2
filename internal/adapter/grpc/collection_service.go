package grpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "realtime-users/internal/domain/user"
	"realtime-users/internal/usecase/user"
	apperrors "realtime-users/pkg/errors"
	"realtime-users/pkg/logger"
)

// Full method names of the collection service.
const (
	ServiceName  = "realtime.v1.CollectionService"
	WatchMethod  = "/" + ServiceName + "/Watch"
	WriteMethod  = "/" + ServiceName + "/Write"
	RemoveMethod = "/" + ServiceName + "/Remove"
)

// CollectionServer is the server API of the collection service.
type CollectionServer interface {
	Watch(req *structpb.Struct, stream grpc.ServerStream) error
	Write(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	Remove(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
}

// CollectionServiceDesc describes the collection service for grpc.Server.RegisterService.
var CollectionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CollectionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Write", Handler: writeHandler},
		{MethodName: "Remove", Handler: removeHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "realtime/v1/collection.proto",
}

// CollectionService exposes a Collection over gRPC.
type CollectionService struct {
	coll user.Collection
	log  *zap.Logger
}

// NewCollectionService creates a new gRPC collection service
func NewCollectionService(coll user.Collection, log *zap.Logger) *CollectionService {
	return &CollectionService{coll: coll, log: log}
}

// Register adds the service to s.
func (svc *CollectionService) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&CollectionServiceDesc, svc)
}

// Watch streams a snapshot of the requested collection after every change.
func (svc *CollectionService) Watch(req *structpb.Struct, stream grpc.ServerStream) error {
	ctx := stream.Context()
	log := logger.WithContext(ctx, svc.log)

	root := stringField(req, fieldRoot)
	if root == "" {
		return apperrors.NewValidationError(fieldRoot, "root is required")
	}

	events, err := svc.coll.Watch(ctx, root)
	if err != nil {
		log.Error("failed to watch collection", zap.String("root", root), zap.Error(err))
		return apperrors.NewSyncError("could not subscribe to "+root, err)
	}

	for ev := range events {
		if ev.Err != nil {
			log.Warn("watch dropped", zap.String("root", root), zap.Error(ev.Err))
			return apperrors.NewSyncError("subscription to "+root+" dropped", ev.Err)
		}
		if err := stream.SendMsg(encodeSnapshot(ev.Users)); err != nil {
			log.Debug("watch client gone", zap.String("root", root), zap.Error(err))
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil
	}
	return apperrors.NewSyncError("subscription to "+root+" closed by backend", nil)
}

// Write handles the Write call.
func (svc *CollectionService) Write(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	path := stringField(req, fieldPath)
	u := domain.User{Name: stringField(req, fieldName), Email: stringField(req, fieldEmail)}

	if err := svc.coll.Write(ctx, path, u); err != nil {
		logger.WithContext(ctx, svc.log).Error("write failed", zap.String("path", path), zap.Error(err))
		return nil, statusError("write", path, err)
	}
	return &emptypb.Empty{}, nil
}

// Remove handles the Remove call.
func (svc *CollectionService) Remove(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	path := stringField(req, fieldPath)

	if err := svc.coll.Remove(ctx, path); err != nil {
		logger.WithContext(ctx, svc.log).Error("remove failed", zap.String("path", path), zap.Error(err))
		return nil, statusError("remove", path, err)
	}
	return &emptypb.Empty{}, nil
}

// statusError keeps errors that already carry a gRPC status and reports the
// rest as store failures.
func statusError(op, path string, err error) error {
	var st apperrors.GRPCStatuser
	if errors.As(err, &st) {
		return err
	}
	return apperrors.NewStoreError(op, path, err)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CollectionServer).Watch(in, stream)
}

func writeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CollectionServer).Write(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: WriteMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CollectionServer).Write(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func removeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CollectionServer).Remove(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RemoveMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CollectionServer).Remove(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
