package grpc

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "realtime-users/internal/domain/user"
	apperrors "realtime-users/pkg/errors"
)

// CollectionClient is a Collection backed by a remote collection service.
type CollectionClient struct {
	conn grpc.ClientConnInterface
	log  *zap.Logger
}

// NewCollectionClient creates a client over conn.
func NewCollectionClient(conn grpc.ClientConnInterface, log *zap.Logger) *CollectionClient {
	return &CollectionClient{conn: conn, log: log}
}

// Watch opens a Watch stream. It waits for the first snapshot so that a
// rejected subscription is reported here rather than as a dropped stream.
func (c *CollectionClient) Watch(ctx context.Context, root string) (<-chan domain.Event, error) {
	ctx, cancel := context.WithCancel(ctx)

	first, stream, err := c.openWatch(ctx, root)
	if err != nil {
		cancel()
		return nil, apperrors.FromStatus(err, "watch", root)
	}

	out := make(chan domain.Event)
	go func() {
		defer close(out)
		defer cancel()

		send := func(ev domain.Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(domain.Event{Users: first}) {
			return
		}
		for {
			users, err := recvSnapshot(stream)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					return
				}
				c.log.Warn("watch stream failed", zap.String("root", root), zap.Error(err))
				send(domain.Event{Err: apperrors.FromStatus(err, "watch", root)})
				return
			}
			if !send(domain.Event{Users: users}) {
				return
			}
		}
	}()

	return out, nil
}

func (c *CollectionClient) openWatch(ctx context.Context, root string) ([]domain.User, grpc.ClientStream, error) {
	stream, err := c.conn.NewStream(ctx, &CollectionServiceDesc.Streams[0], WatchMethod)
	if err != nil {
		return nil, nil, err
	}
	// io.EOF means the server already ended the call; RecvMsg reports why.
	if err := stream.SendMsg(newWatchRequest(root)); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, nil, err
	}

	first, err := recvSnapshot(stream)
	if err != nil {
		return nil, nil, err
	}
	return first, stream, nil
}

// Write creates or overwrites the record at path.
func (c *CollectionClient) Write(ctx context.Context, path string, u domain.User) error {
	if err := c.conn.Invoke(ctx, WriteMethod, newWriteRequest(path, u), new(emptypb.Empty)); err != nil {
		return apperrors.FromStatus(err, "write", path)
	}
	return nil
}

// Remove deletes the record at path.
func (c *CollectionClient) Remove(ctx context.Context, path string) error {
	if err := c.conn.Invoke(ctx, RemoveMethod, newRemoveRequest(path), new(emptypb.Empty)); err != nil {
		return apperrors.FromStatus(err, "remove", path)
	}
	return nil
}

func recvSnapshot(stream grpc.ClientStream) ([]domain.User, error) {
	msg := new(structpb.Struct)
	if err := stream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return decodeSnapshot(msg)
}

// tokenCredentials attaches a bearer token to every call.
type tokenCredentials struct {
	token  string
	secure bool
}

func (t tokenCredentials) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + t.token}, nil
}

func (t tokenCredentials) RequireTransportSecurity() bool {
	return t.secure
}

// WithToken returns a dial option sending token with every call. secure
// must match whether the connection uses TLS.
func WithToken(token string, secure bool) grpc.DialOption {
	return grpc.WithPerRPCCredentials(tokenCredentials{token: token, secure: secure})
}
