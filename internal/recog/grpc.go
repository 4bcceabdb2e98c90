package recog

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	apperrors "github.com/screenlens/screenlens/internal/errors"
)

const (
	codecName     = "json"
	extractMethod = "/screenlens.Recognizer/ExtractText"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec lets the client speak to the recognition service without
// generated protobuf stubs. The service registers the same codec.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

type extractRequest struct {
	Image  []byte `json:"image"`
	Format string `json:"format"`
}

type extractResponse struct {
	Text string `json:"text"`
}

// Remote recognizes text via the external recognition service. Safe for
// concurrent use; the underlying connection multiplexes calls.
type Remote struct {
	conn *grpc.ClientConn
}

// NewRemote connects to the recognition service at addr. Connection
// establishment is lazy; failures surface on the first call.
func NewRemote(addr string) (*Remote, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.BackendUnavailable, "connect recognition service")
	}
	return &Remote{conn: conn}, nil
}

// ExtractText sends the image to the remote service and returns the
// recognized text. Deadline enforcement is the caller's job via ctx.
func (r *Remote) ExtractText(ctx context.Context, image []byte, format string) (string, error) {
	req := &extractRequest{Image: image, Format: format}
	resp := &extractResponse{}
	if err := r.conn.Invoke(ctx, extractMethod, req, resp); err != nil {
		return "", apperrors.FromGRPCError(err)
	}
	return resp.Text, nil
}

// Close tears down the connection.
func (r *Remote) Close() error {
	return r.conn.Close()
}
