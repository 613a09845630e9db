package letter_tools

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coverletter/internal/docs"
	"github.com/teemow/coverletter/internal/drive"
	"github.com/teemow/coverletter/internal/letter"
	"github.com/teemow/coverletter/internal/server"
	"github.com/teemow/coverletter/internal/tools/batch"
	"github.com/teemow/coverletter/internal/tools/common"
)

// RegisterLetterTools registers the cover letter tools with the MCP server.
// The generate tools are only registered when the server has a pipeline.
func RegisterLetterTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	copyTool := mcp.NewTool("drive_copy_template",
		mcp.WithDescription("Copy the cover letter template (or another document) into a new Google Doc"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title of the new document"),
		),
		mcp.WithString("templateId",
			mcp.Description("Document ID or URL to copy (default: the configured template)"),
		),
	)
	s.AddTool(copyTool, common.InstrumentedToolHandler("drive_copy_template", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCopyTemplate(ctx, request, sc)
		}))

	fillTool := mcp.NewTool("docs_fill_placeholders",
		mcp.WithDescription("Replace the company, role and body placeholders in a Google Doc. Matching is case-sensitive and values are inserted verbatim."),
		mcp.WithString("documentId",
			mcp.Required(),
			mcp.Description("Document ID or URL"),
		),
		mcp.WithString("company",
			mcp.Required(),
			mcp.Description("Company name"),
		),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Role title"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Letter body; paragraphs separated by single newlines"),
		),
	)
	s.AddTool(fillTool, common.InstrumentedToolHandler("docs_fill_placeholders", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFillPlaceholders(ctx, request, sc)
		}))

	exportTool := mcp.NewTool("drive_export_pdf",
		mcp.WithDescription("Export a Google Doc as PDF into the server's output directory"),
		mcp.WithString("documentId",
			mcp.Required(),
			mcp.Description("Document ID or URL"),
		),
		mcp.WithString("filename",
			mcp.Description("File name relative to the output directory (default: <documentId>.pdf)"),
		),
	)
	s.AddTool(exportTool, common.InstrumentedToolHandler("drive_export_pdf", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleExportPDF(ctx, request, sc)
		}))

	if !sc.HasPipeline() {
		return nil
	}

	generateTool := mcp.NewTool("coverletter_generate",
		mcp.WithDescription("Generate a cover letter for a role at a company: write the body, fill a copy of the template and save it as PDF"),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Role title, e.g. 'Senior Platform Engineer'"),
		),
		mcp.WithString("company",
			mcp.Required(),
			mcp.Description("Company name"),
		),
	)
	s.AddTool(generateTool, common.InstrumentedToolHandler("coverletter_generate", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGenerate(ctx, request, sc)
		}))

	batchTool := mcp.NewTool("coverletter_generate_batch",
		mcp.WithDescription("Generate cover letters for one role at several companies, one after another"),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Role title"),
		),
		mcp.WithString("companies",
			mcp.Required(),
			mcp.Description("Company name (string) or array of company names"),
		),
	)
	s.AddTool(batchTool, common.InstrumentedToolHandler("coverletter_generate_batch", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGenerateBatch(ctx, request, sc)
		}))

	return nil
}

func handleCopyTemplate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	title, err := common.RequiredString(args, "title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ref := common.OptionalString(args, "templateId", sc.Template().ID)
	if ref == "" {
		return mcp.NewToolResultError("templateId is required when no template is configured"), nil
	}
	templateID, err := drive.ResolveDocumentID(ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := sc.Drive().CopyTemplate(ctx, templateID, title)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to copy template: %v", err)), nil
	}

	return common.JSONResult(info), nil
}

func handleFillPlaceholders(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	documentID, err := resolveDocumentArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	company, err := common.RequiredString(args, "company")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	role, err := common.RequiredString(args, "role")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, ok := common.RawString(args, "body")
	if !ok {
		return mcp.NewToolResultError("body is required"), nil
	}

	t := sc.Template()
	if err := t.ValidateTokens(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := sc.Docs().FillPlaceholders(ctx, documentID, []docs.Replacement{
		{Token: t.CompanyToken, Value: company},
		{Token: t.RoleToken, Value: role},
		{Token: t.BodyToken, Value: body},
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fill placeholders: %v", err)), nil
	}

	return common.JSONResult(result), nil
}

func handleExportPDF(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	documentID, err := resolveDocumentArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path, err := outputPath(sc.OutputDir(), common.OptionalString(args, "filename", documentID+".pdf"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := sc.Drive().ExportPDF(ctx, documentID, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to export PDF: %v", err)), nil
	}

	return common.JSONResult(result), nil
}

func handleGenerate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	role, err := common.RequiredString(args, "role")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	company, err := common.RequiredString(args, "company")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	conf, err := sc.Generate(ctx, letter.Request{Role: role, Company: company})
	if err != nil {
		return mcp.NewToolResultError(generateFailure(err)), nil
	}

	return common.JSONResult(conf), nil
}

func handleGenerateBatch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	role, err := common.RequiredString(args, "role")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	companies, err := batch.ParseStringOrArray(args["companies"], "companies")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.Process(ctx, companies, func(ctx context.Context, company string) (interface{}, error) {
		conf, err := sc.Generate(ctx, letter.Request{Role: role, Company: company})
		if err != nil {
			return nil, errors.New(generateFailure(err))
		}
		return conf, nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func resolveDocumentArg(args map[string]interface{}) (string, error) {
	ref, err := common.RequiredString(args, "documentId")
	if err != nil {
		return "", err
	}
	return drive.ResolveDocumentID(ref)
}

// outputPath joins name to dir. name must stay inside dir.
func outputPath(dir, name string) (string, error) {
	name = filepath.Clean(filepath.FromSlash(name))
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("filename %q must be a relative path inside the output directory", name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return filepath.Join(dir, name), nil
}

// generateFailure describes a failed run, including the orphaned copy when
// one was left behind.
func generateFailure(err error) string {
	var stepErr *letter.StepError
	if errors.As(err, &stepErr) && stepErr.Orphaned() {
		return fmt.Sprintf("Failed to generate cover letter: %v (document %s was left in Drive)", err, stepErr.DocumentID)
	}
	return fmt.Sprintf("Failed to generate cover letter: %v", err)
}
