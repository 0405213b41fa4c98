package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kolkov/launcher/internal/service"
)

// Client talks to a running launcher.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the control API at addr. The connection is plaintext;
// the API listens on loopback by default.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) callName(ctx context.Context, method, name string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, wrapperspb.String(name), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) callEmpty(ctx context.Context, method string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Start(ctx context.Context, name string) (service.Result, error) {
	out, err := c.callName(ctx, methodStart, name)
	if err != nil {
		return service.Result{}, err
	}
	return resultFromStruct(out), nil
}

func (c *Client) Stop(ctx context.Context, name string) (service.Result, error) {
	out, err := c.callName(ctx, methodStop, name)
	if err != nil {
		return service.Result{}, err
	}
	return resultFromStruct(out), nil
}

func (c *Client) Restart(ctx context.Context, name string) ([]service.Result, error) {
	out, err := c.callName(ctx, methodRestart, name)
	if err != nil {
		return nil, err
	}
	return resultsFromStruct(out), nil
}

func (c *Client) StartAll(ctx context.Context) ([]service.Result, error) {
	out, err := c.callEmpty(ctx, methodStartAll)
	if err != nil {
		return nil, err
	}
	return resultsFromStruct(out), nil
}

func (c *Client) StopAll(ctx context.Context) ([]service.Result, error) {
	out, err := c.callEmpty(ctx, methodStopAll)
	if err != nil {
		return nil, err
	}
	return resultsFromStruct(out), nil
}

func (c *Client) Status(ctx context.Context) ([]service.Module, error) {
	out, err := c.callEmpty(ctx, methodStatus)
	if err != nil {
		return nil, err
	}
	return modulesFromStruct(out), nil
}
