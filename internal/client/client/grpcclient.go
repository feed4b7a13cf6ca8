package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
)

const DefaultTimeout = 12 * time.Second

type GRPCClient struct {
	endpointURL string
	token       string
	timeout     time.Duration
	dialOpts    []grpc.DialOption
	conn        *grpc.ClientConn
}

type Option func(*GRPCClient)

// WithToken sends a bearer token with every call.
func WithToken(token string) Option {
	return func(c *GRPCClient) { c.token = token }
}

// WithTimeout bounds each call; zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *GRPCClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func NewFeedClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: DefaultTimeout}
	for _, o := range opts {
		o(c)
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(JSONCodec{})),
		grpc.WithUnaryInterceptor(c.metadataInterceptor),
	}, c.dialOpts...)

	conn, err := grpc.NewClient(c.endpointURL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpointURL, err)
	}
	c.conn = conn
	return c, nil
}

func withMetadata(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	if len(md.Get(RequestIDHeader)) == 0 {
		md.Set(RequestIDHeader, uuid.NewString())
	}
	if token != "" {
		md.Set(AuthorizationHeader, "Bearer "+token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) metadataInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withMetadata(ctx, c.token), method, req, reply, cc, opts...)
}

func (c *GRPCClient) SendInteraction(ctx context.Context, entryID string, kind models.Interaction, value string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &InteractionRequest{EntryID: entryID, Kind: kind, Value: value}
	if err := c.conn.Invoke(ctx, MethodSendInteraction, req, &InteractionResponse{}); err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *GRPCClient) FetchPage(ctx context.Context, key models.CollectionKey, page, pageSize int) (models.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &FetchPageRequest{Kind: key.Kind, Identity: key.Identity, Page: page, PageSize: pageSize}
	var resp FetchPageResponse
	if err := c.conn.Invoke(ctx, MethodFetchPage, req, &resp); err != nil {
		return models.Page{}, c.mapError(err)
	}
	return resp.Page, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
