// internal/mcpserver/tools.go
package mcpserver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/core"
	"github.com/Annany2002/nebula-forms/internal/editor"
)

func (s *Server) registerTools() {
	profileArg := mcp.WithString("profile",
		mcp.Required(),
		mcp.Description("Editor profile name, see list_profiles"),
	)

	s.mcp.AddTool(mcp.NewTool("list_profiles",
		mcp.WithDescription("List the configured editor profiles and the table each one edits"),
	), s.handleListProfiles)

	s.mcp.AddTool(mcp.NewTool("describe_table",
		mcp.WithDescription("Connect to a profile's table and describe its columns, field kinds and dropdown values"),
		profileArg,
	), s.handleDescribeTable)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List records of a profile's table, optionally filtered by a case-insensitive search term"),
		profileArg,
		mcp.WithString("search", mcp.Description("Substring to match in any column (optional)")),
		mcp.WithNumber("limit", mcp.Description("Rows per page (default: 100)")),
		mcp.WithNumber("offset", mcp.Description("Rows to skip (default: 0)")),
	), s.handleListRecords)

	s.mcp.AddTool(mcp.NewTool("form_fields",
		mcp.WithDescription("Render the add form, or the edit form for a record, with each field's control and current value"),
		profileArg,
		mcp.WithString("mode", mcp.Required(), mcp.Description("add or edit")),
		mcp.WithString("key", mcp.Description("Key column value of the record, the 'key' field of list_records rows (edit mode)")),
	), s.handleFormFields)

	s.mcp.AddTool(mcp.NewTool("add_record",
		mcp.WithDescription("Validate and insert a new record"),
		profileArg,
		mcp.WithObject("values", mcp.Required(), mcp.Description("Column values keyed by column name")),
	), s.handleAddRecord)

	s.mcp.AddTool(mcp.NewTool("update_record",
		mcp.WithDescription("Validate and update the record with the given key. Columns not given keep their value."),
		profileArg,
		mcp.WithString("key", mcp.Required(), mcp.Description("Key column value of the record, the 'key' field of list_records rows")),
		mcp.WithObject("values", mcp.Required(), mcp.Description("Column values keyed by column name")),
	), s.handleUpdateRecord)

	s.mcp.AddTool(mcp.NewTool("delete_record",
		mcp.WithDescription("DESTRUCTIVE: delete the record with the given key"),
		profileArg,
		mcp.WithString("key", mcp.Required(), mcp.Description("Key column value of the record, the 'key' field of list_records rows")),
	), s.handleDeleteRecord)
}

func (s *Server) handleListProfiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profiles := s.profiles.List()
	out := make([]config.Summary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Summary())
	}
	return jsonResult(out)
}

func (s *Server) handleDescribeTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing profile parameter: %v", err)), nil
	}
	sc, err := s.session(ctx, name)
	if err != nil {
		return toolError("Connect", err), nil
	}
	view, err := s.editor.Refresh(ctx, sc)
	if err != nil {
		return toolError("Describe", err), nil
	}
	return jsonResult(view)
}

func (s *Server) handleListRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing profile parameter: %v", err)), nil
	}

	query := url.Values{}
	query.Set("search", optionalString(req, "search"))
	for _, key := range []string{"limit", "offset"} {
		n, ok, err := optionalInt(req, key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if ok {
			query.Set(key, strconv.Itoa(n))
		}
	}
	opts, err := core.ParseListQueryOptions(query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sc, err := s.session(ctx, name)
	if err != nil {
		return toolError("Connect", err), nil
	}
	page, err := s.editor.Records(ctx, sc, opts)
	if err != nil {
		return toolError("List", err), nil
	}
	return jsonResult(page)
}

func (s *Server) handleFormFields(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing profile parameter: %v", err)), nil
	}
	rawMode, err := req.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing mode parameter: %v", err)), nil
	}
	mode, err := editor.ParseMode(rawMode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, _, err := optionalKey(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sc, err := s.session(ctx, name)
	if err != nil {
		return toolError("Connect", err), nil
	}
	form, err := s.editor.Form(ctx, sc, mode, key)
	if err != nil {
		return toolError("Form", err), nil
	}
	return jsonResult(form)
}

func (s *Server) handleAddRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing profile parameter: %v", err)), nil
	}
	input, err := values(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sc, err := s.session(ctx, name)
	if err != nil {
		return toolError("Connect", err), nil
	}
	result, err := s.editor.Add(ctx, sc, input)
	if err != nil {
		return toolError("Insert", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleUpdateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing profile parameter: %v", err)), nil
	}
	key, err := requireKey(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input, err := values(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sc, err := s.session(ctx, name)
	if err != nil {
		return toolError("Connect", err), nil
	}
	result, err := s.editor.Edit(ctx, sc, key, input)
	if err != nil {
		return toolError("Update", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleDeleteRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Missing profile parameter: %v", err)), nil
	}
	key, err := requireKey(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sc, err := s.session(ctx, name)
	if err != nil {
		return toolError("Connect", err), nil
	}
	result, err := s.editor.Delete(ctx, sc, key)
	if err != nil {
		return toolError("Delete", err), nil
	}
	return jsonResult(result)
}
