package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/streamsplit/pkg/api"
)

type echoRequest struct {
	Fail string `json:"fail"`
}

type echoResponse struct {
	OK bool `json:"ok"`
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	const procedure = "/test.v1.Echo/Echo"
	handler := connect.NewUnaryHandler(procedure,
		func(ctx context.Context, req *connect.Request[echoRequest]) (*connect.Response[echoResponse], error) {
			switch req.Msg.Fail {
			case "invalid":
				return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("bad input"))
			case "internal":
				return nil, connect.NewError(connect.CodeInternal, errors.New("boom"))
			}
			return connect.NewResponse(&echoResponse{OK: true}), nil
		},
		connect.WithCodec(api.Codec{}),
		connect.WithInterceptors(LoggingInterceptor(logger)),
	)

	mux := http.NewServeMux()
	mux.Handle(procedure, handler)
	server := httptest.NewServer(mux)
	defer server.Close()

	client := connect.NewClient[echoRequest, echoResponse](http.DefaultClient, server.URL+procedure,
		connect.WithCodec(api.Codec{}))

	tests := []struct {
		fail      string
		wantLevel string
		wantMsg   string
	}{
		{fail: "", wantLevel: `"level":"INFO"`, wantMsg: `"msg":"RPC ok"`},
		{fail: "invalid", wantLevel: `"level":"WARN"`, wantMsg: `"code":"invalid_argument"`},
		{fail: "internal", wantLevel: `"level":"ERROR"`, wantMsg: `"code":"internal"`},
	}

	for _, tt := range tests {
		t.Run("fail="+tt.fail, func(t *testing.T) {
			buf.Reset()
			_, err := client.CallUnary(context.Background(), connect.NewRequest(&echoRequest{Fail: tt.fail}))
			if tt.fail == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}

			out := buf.String()
			assert.Contains(t, out, tt.wantLevel)
			assert.Contains(t, out, tt.wantMsg)
			assert.Contains(t, out, `"procedure":"/test.v1.Echo/Echo"`)
			assert.Contains(t, out, `"duration_ms"`)
		})
	}
}
