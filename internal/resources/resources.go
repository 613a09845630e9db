package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coverletter/internal/compose"
	"github.com/teemow/coverletter/internal/server"
)

// Resource URIs.
const (
	TemplateURI = "coverletter://template"
	ProfileURI  = "coverletter://profile"
)

// TemplateInfo is the content of the template resource.
type TemplateInfo struct {
	TemplateID      string `json:"templateId"`
	TemplateURL     string `json:"templateUrl,omitempty"`
	CompanyToken    string `json:"companyToken"`
	RoleToken       string `json:"roleToken"`
	BodyToken       string `json:"bodyToken"`
	OutputDir       string `json:"outputDir"`
	GenerateEnabled bool   `json:"generateEnabled"`
}

// Definitions lists the resources RegisterLetterResources serves.
func Definitions() []mcp.Resource {
	return []mcp.Resource{templateResource(), profileResource()}
}

func templateResource() mcp.Resource {
	return mcp.NewResource(
		TemplateURI,
		"Cover Letter Template",
		mcp.WithResourceDescription("The Google Docs template and the placeholder tokens replaced in each copy"),
		mcp.WithMIMEType("application/json"),
	)
}

func profileResource() mcp.Resource {
	return mcp.NewResource(
		ProfileURI,
		"Candidate Profile",
		mcp.WithResourceDescription("The candidate profile the letter body is written from"),
		mcp.WithMIMEType("text/plain"),
	)
}

// RegisterLetterResources registers the template and profile resources
func RegisterLetterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	s.AddResource(templateResource(), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleTemplate(ctx, request, sc)
	})
	s.AddResource(profileResource(), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleProfile(ctx, request, sc)
	})
	return nil
}

func handleTemplate(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	t := sc.Template()
	if t.ID == "" {
		return nil, fmt.Errorf("no template is configured")
	}

	info := TemplateInfo{
		TemplateID:      t.ID,
		TemplateURL:     "https://docs.google.com/document/d/" + t.ID + "/edit",
		CompanyToken:    t.CompanyToken,
		RoleToken:       t.RoleToken,
		BodyToken:       t.BodyToken,
		OutputDir:       sc.OutputDir(),
		GenerateEnabled: sc.HasPipeline(),
	}

	jsonData, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template info: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

func handleProfile(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	profile, err := compose.LoadProfile(sc.ProfileFile())
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     profile,
		},
	}, nil
}
