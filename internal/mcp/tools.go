package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *sdkmcp.Server, ctrl Controller) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_status",
		Description: "Report backend readiness, the signed-in user, and the current view",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		out := statusOutput{
			Ready:         ctrl.Ready(),
			Authenticated: ctrl.Authenticated(),
			View:          ctrl.View().String(),
		}
		out.UserID, _ = ctrl.UserID()
		if active, ok := ctrl.Active(); ok {
			out.ActiveProject = active.ID
		}
		return textResult(fmt.Sprintf("view=%s ready=%t authenticated=%t", out.View, out.Ready, out.Authenticated)), out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List projects in display order with the active one marked",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, projectListOutput, error) {
		out := listProjects(ctrl)
		return textResult(fmt.Sprintf("Found %d projects", len(out.Projects))), out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create an empty project and make it active",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, projectOutput, error) {
		proj, err := ctrl.CreateProject(ctx)
		if err != nil {
			return nil, projectOutput{}, toolError(err)
		}
		return textResult(fmt.Sprintf("Created project %s", proj.ID)), toProjectOutput(proj, proj.ID), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "select_project",
		Description: "Make a project active and load its chat history",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in projectIDInput) (*sdkmcp.CallToolResult, projectOutput, error) {
		if err := ctrl.Select(ctx, in.ID); err != nil {
			return nil, projectOutput{}, toolError(err)
		}
		active, _ := ctrl.Active()
		return textResult(fmt.Sprintf("Selected %s", active.Title)), toProjectOutput(active, active.ID), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_project",
		Description: "Remove a project from this session. The backend keeps its document and chat.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in projectIDInput) (*sdkmcp.CallToolResult, projectListOutput, error) {
		if err := ctrl.DeleteProject(ctx, in.ID); err != nil {
			return nil, projectListOutput{}, toolError(err)
		}
		return textResult(fmt.Sprintf("Removed project %s", in.ID)), listProjects(ctrl), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "upload_document",
		Description: "Upload a local PDF for the active project. A project that already has a document gets a new project instead.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in uploadDocumentInput) (*sdkmcp.CallToolResult, uploadOutput, error) {
		res, err := ctrl.UploadPath(ctx, in.Path)
		if err != nil {
			return nil, uploadOutput{}, toolError(err)
		}
		out := uploadOutput{
			Project:    toProjectOutput(res.Project, res.Project.ID),
			Created:    res.Created,
			ServerName: res.ServerName,
			Phase:      string(res.Phase),
		}
		return textResult(fmt.Sprintf("Uploaded %s to project %s", res.Project.FileName, res.Project.ID)), out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "ask_question",
		Description: "Ask a question about the active project's document",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in askQuestionInput) (*sdkmcp.CallToolResult, answerOutput, error) {
		reply, err := ctrl.Ask(ctx, in.Question)
		if err != nil {
			return nil, answerOutput{}, toolError(err)
		}
		active, _ := ctrl.Active()
		return textResult(reply.Content), answerOutput{ProjectID: active.ID, Answer: toMessageOutput(reply)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_messages",
		Description: "Return the active project's chat history, oldest first",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, messagesOutput, error) {
		msgs := ctrl.Messages()
		out := messagesOutput{Messages: make([]messageOutput, 0, len(msgs))}
		if active, ok := ctrl.Active(); ok {
			out.ProjectID = active.ID
		}
		for _, m := range msgs {
			out.Messages = append(out.Messages, toMessageOutput(m))
		}
		return textResult(fmt.Sprintf("Found %d messages", len(out.Messages))), out, nil
	})
}

func listProjects(ctrl Controller) projectListOutput {
	projects := ctrl.Projects()
	out := projectListOutput{Projects: make([]projectOutput, 0, len(projects))}
	if active, ok := ctrl.Active(); ok {
		out.ActiveID = active.ID
	}
	for _, p := range projects {
		out.Projects = append(out.Projects, toProjectOutput(p, out.ActiveID))
	}
	return out
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}
