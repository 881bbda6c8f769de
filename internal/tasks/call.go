package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
	"github.com/tideloom/tideloom/pkg/ports"
)

// callHandler performs an outbound HTTP request through the run's client.
// Call type "http" uses the configured method and endpoint directly; type
// "openapi" resolves the operationId against the referenced document first.
// Endpoint, headers and body may contain expressions.
func callHandler(deps Deps) ports.HandlerFunc {
	return func(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
		call := task.Call
		env := expr.NewEnv(input, rc)

		method := strings.ToUpper(call.Method)
		endpoint := call.Endpoint

		switch strings.ToLower(call.Type) {
		case "http":
			// Configured method/endpoint used as-is.
		case "openapi":
			if deps.OpenAPI == nil {
				return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "openapi calls are not configured")
			}
			op, err := deps.OpenAPI.Resolve(ctx, call.Document, call.Operation)
			if err != nil {
				return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", err.Error())
			}
			method = op.Method
			endpoint = op.URL
		default:
			return nil, &domain.ValidationError{Message: fmt.Sprintf("unsupported call type %q", call.Type)}
		}

		resolvedEndpoint, err := deps.Evaluator.Resolve(endpoint, env)
		if err != nil {
			return nil, err
		}
		url, ok := resolvedEndpoint.(string)
		if !ok {
			return nil, &domain.ValidationError{Message: "call endpoint did not resolve to a string"}
		}

		var body io.Reader
		if call.Body != nil {
			resolvedBody, err := deps.Evaluator.Resolve(call.Body, env)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(resolvedBody)
			if err != nil {
				return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "encode body: "+err.Error())
			}
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "build request: "+err.Error())
		}
		if call.Body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range call.Headers {
			resolved, err := deps.Evaluator.Resolve(v, env)
			if err != nil {
				return nil, err
			}
			req.Header.Set(k, fmt.Sprintf("%v", resolved))
		}

		client := rc.HTTP
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr == context.DeadlineExceeded {
				return nil, domain.NewExecutionError(domain.ErrTimeout, "", "call timed out")
			} else if ctxErr != nil {
				return nil, domain.Cancelled("")
			}
			return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "request failed: "+err.Error())
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "read response: "+err.Error())
		}
		if resp.StatusCode >= 400 {
			return nil, domain.NewExecutionError(domain.ErrTaskFailed, "",
				fmt.Sprintf("%s %s returned %d", method, url, resp.StatusCode))
		}
		return decodeResponse(resp.Header.Get("Content-Type"), raw), nil
	}
}

// decodeResponse shapes the response body into a value: JSON when the
// server says so (or when it parses anyway), raw string otherwise.
func decodeResponse(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err == nil {
		if strings.Contains(contentType, "json") || contentType == "" {
			return decoded
		}
	}
	return string(raw)
}
