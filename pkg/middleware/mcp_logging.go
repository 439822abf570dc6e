package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/logging"
)

// maxArgumentLogLength caps logged string arguments; tool inputs can carry
// whole documents.
const maxArgumentLogLength = 200

// MCPRequestLogger logs MCP JSON-RPC traffic: the tool being called with
// redacted arguments on the way in, outcome and duration on the way out.
// Pass nil logger to disable logging.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("failed to read MCP request body", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			// Non-JSON bodies still flow through; the zero-value call logs
			// with empty fields.
			var call rpcCall
			_ = json.Unmarshal(body, &call)

			logger.Debug("MCP request",
				zap.String("method", call.Method),
				zap.String("tool", call.Params.Name),
				zap.Any("arguments", redactArguments(call.Params.Arguments)),
			)

			rec := &bodyRecorder{ResponseWriter: w, body: &bytes.Buffer{}}
			start := time.Now()

			next.ServeHTTP(rec, r)

			var reply rpcReply
			if err := json.Unmarshal(rec.body.Bytes(), &reply); err != nil {
				return
			}

			if reply.Error != nil {
				logger.Warn("MCP response error",
					zap.String("tool", call.Params.Name),
					zap.Int("error_code", reply.Error.Code),
					zap.String("error_message", reply.Error.Message),
					zap.Duration("duration", time.Since(start)),
				)
				return
			}
			logger.Debug("MCP response success",
				zap.String("tool", call.Params.Name),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// rpcCall is the slice of a JSON-RPC request the log cares about.
type rpcCall struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type rpcReply struct {
	Error *rpcFault `json:"error"`
}

type rpcFault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// bodyRecorder mirrors response bytes into a buffer for post-hoc parsing.
type bodyRecorder struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// redactArguments hides credential-shaped values and truncates long strings
// before they reach the log.
func redactArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if sensitiveArgument(k) {
			out[k] = logging.RedactedText
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = logging.TruncateString(s, maxArgumentLogLength)
			continue
		}
		out[k] = v
	}
	return out
}

func sensitiveArgument(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range []string{"password", "secret", "token", "key", "credential"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
