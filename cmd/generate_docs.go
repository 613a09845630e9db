package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"text/template"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coverletter/internal/compose"
	"github.com/teemow/coverletter/internal/config"
	"github.com/teemow/coverletter/internal/docs"
	"github.com/teemow/coverletter/internal/drive"
	"github.com/teemow/coverletter/internal/google"
	"github.com/teemow/coverletter/internal/letter"
	"github.com/teemow/coverletter/internal/resources"
	"github.com/teemow/coverletter/internal/server"
)

// Tool categories in the order they appear in the reference.
var categoryOrder = []string{
	"Cover Letter Tools",
	"Google Drive Tools",
	"Google Docs Tools",
	"Google Account Tools",
	"Other",
}

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate the MCP tool and resource reference",
		Long: `Generate a markdown reference for every MCP tool and resource that
"coverletter serve" exposes. The reference is built from the registered
definitions, so it always matches the running server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(cmd.Context(), outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(ctx context.Context, outputFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	serverContext, err := newDocsServerContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("coverletter", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	tools := make([]mcp.Tool, 0)
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}

	markdown, err := renderReference(tools, resources.Definitions())
	if err != nil {
		return err
	}

	if outputFile == "" {
		fmt.Print(markdown)
		return nil
	}
	if err := atomic.WriteFile(outputFile, strings.NewReader(markdown)); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	return nil
}

// newDocsServerContext wires unauthenticated clients and a composer that
// always fails. Registration never calls Google or a model.
func newDocsServerContext(ctx context.Context) (*server.ServerContext, error) {
	creds := google.StaticSource{}
	driveClient := drive.NewClient(creds)
	docsClient := docs.NewClient(creds)
	tmpl := letter.Template{
		ID:           "template",
		CompanyToken: config.DefaultCompanyToken,
		RoleToken:    config.DefaultRoleToken,
		BodyToken:    config.DefaultBodyToken,
	}

	pipeline, err := letter.NewPipeline(letter.PipelineConfig{
		Template: tmpl,
		Composer: docsComposer{},
		Copier:   driveClient,
		Filler:   docsClient,
		Exporter: driveClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	serverContext, err := server.NewServerContext(ctx, server.Options{
		Drive:       driveClient,
		Docs:        docsClient,
		Pipeline:    pipeline,
		Template:    tmpl,
		Credentials: creds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	return serverContext, nil
}

type docsComposer struct{}

func (docsComposer) Compose(ctx context.Context, req compose.Request) (string, error) {
	return "", errors.New("composer is not available while generating docs")
}

type toolArgument struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

type toolDoc struct {
	Name        string
	Description string
	Arguments   []toolArgument
}

type categoryDoc struct {
	Title string
	Tools []toolDoc
}

var referenceTemplate = template.Must(template.New("reference").Funcs(template.FuncMap{
	"anchor": anchor,
	"cell":   tableCell,
}).Parse(`# MCP Tools Reference

Tools and resources served by ` + "`coverletter serve`" + `.

**Note:** This documentation is automatically generated from the tool definitions.

## Table of Contents

{{range .Categories}}- [{{.Title}}](#{{anchor .Title}})
{{end}}{{if .Resources}}- [Resources](#resources)
{{end}}
{{range .Categories}}## {{.Title}}

{{range .Tools}}### {{.Name}}

{{if .Description}}{{.Description}}

{{end}}{{if .Arguments}}| Argument | Type | Required | Description |
|---|---|---|---|
{{range .Arguments}}| ` + "`{{.Name}}`" + ` | {{.Type}} | {{if .Required}}yes{{else}}no{{end}} | {{cell .Description}} |
{{end}}
{{end}}{{end}}{{end}}{{if .Resources}}## Resources

| URI | MIME type | Description |
|---|---|---|
{{range .Resources}}| ` + "`{{.URI}}`" + ` | {{.MIMEType}} | {{cell .Description}} |
{{end}}{{end}}`))

// renderReference groups tools by category and renders the markdown reference.
func renderReference(tools []mcp.Tool, res []mcp.Resource) (string, error) {
	grouped := make(map[string][]toolDoc)
	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		grouped[category] = append(grouped[category], newToolDoc(tool))
	}

	var categories []categoryDoc
	for _, title := range categoryOrder {
		entries, ok := grouped[title]
		if !ok {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		categories = append(categories, categoryDoc{Title: title, Tools: entries})
	}

	res = slices.Clone(res)
	sort.Slice(res, func(i, j int) bool { return res[i].URI < res[j].URI })

	var sb strings.Builder
	err := referenceTemplate.Execute(&sb, struct {
		Categories []categoryDoc
		Resources  []mcp.Resource
	}{categories, res})
	if err != nil {
		return "", fmt.Errorf("failed to render reference: %w", err)
	}
	return sb.String(), nil
}

func newToolDoc(tool mcp.Tool) toolDoc {
	doc := toolDoc{Name: tool.Name, Description: tool.Description}

	names := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, ok := tool.InputSchema.Properties[name].(map[string]any)
		if !ok {
			continue
		}
		arg := toolArgument{
			Name:     name,
			Type:     "any",
			Required: slices.Contains(tool.InputSchema.Required, name),
		}
		if t, ok := prop["type"].(string); ok {
			arg.Type = t
		}
		if d, ok := prop["description"].(string); ok {
			arg.Description = d
		}
		doc.Arguments = append(doc.Arguments, arg)
	}
	return doc
}

func getCategoryFromToolName(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	switch prefix {
	case "coverletter":
		return "Cover Letter Tools"
	case "docs":
		return "Google Docs Tools"
	case "drive":
		return "Google Drive Tools"
	case "google":
		return "Google Account Tools"
	default:
		return "Other"
	}
}

func anchor(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, " ", "-"))
}

// tableCell keeps a description on one markdown table row.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
