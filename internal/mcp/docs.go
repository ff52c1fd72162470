package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `pdftalks lets you chat with PDF documents. Each project holds at most one document and one chat.

Workflow:
1) Call get_status. Nothing works until ready=true and authenticated=true.
2) list_projects shows the projects and which one is active. Every other tool acts on the active project.
3) upload_document(path) attaches a local PDF (10MB max) to the active project. If the active project already has a document, a new project is created and activated.
4) ask_question(question) sends a question about the active document; get_messages returns the history.
5) select_project, create_project and delete_project manage the list. Deleting is local: the project comes back on the next sign-in.

Docs:
- pdftalks://docs/errors (error codes and recovery)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "pdftalks://docs/errors",
		Name:        "docs_errors",
		Title:       "pdftalks error codes",
		Description: "Tool error codes and how to recover from each.",
		Content: `# Error codes

Tool errors are returned as ` + "`CODE: message (hint)`" + `.

| Code | Meaning | Recovery |
|------|---------|----------|
| NOT_READY | The backend did not answer the liveness probe. | Start the backend, then restart the MCP server. |
| NOT_AUTHENTICATED | No credential, or the backend rejected it. | Restart with --token or PDFTALKS_ID_TOKEN. |
| PROJECT_NOT_FOUND | The id is not in the project list. | Call list_projects. |
| VALIDATION_FAILED | Not a PDF, too large, unreadable, or a blank question. | Fix the input. Nothing was sent. |
| UPLOAD_IN_FLIGHT | An upload for this project is still running. | Wait for it to finish. |
| NO_DOCUMENT | The active project has no document yet. | Call upload_document first. |

A failed upload leaves the project bound to the local file, so a retry
creates a new project.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
