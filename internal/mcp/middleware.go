package mcp

import (
	"context"

	"github.com/ganot/pdftalks/internal/app"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ungatedTools answer even when the backend is down or nobody is signed in.
var ungatedTools = map[string]bool{
	"get_status": true,
}

// readinessMiddleware rejects tool calls until the backend answered the
// liveness probe and a user is signed in.
func readinessMiddleware(ctrl Controller) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}

			call, ok := req.(*sdkmcp.CallToolRequest)
			if !ok || call.Params == nil || ungatedTools[call.Params.Name] {
				return next(ctx, method, req)
			}

			switch {
			case !ctrl.Ready():
				return errorResult(MapError(app.ErrNotReady)), nil
			case !ctrl.Authenticated():
				return errorResult(MapError(app.ErrNotAuthenticated)), nil
			}
			return next(ctx, method, req)
		}
	}
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: apiErr.Error()}},
	}
}
