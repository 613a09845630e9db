package compose

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// PromptData is rendered into the system and user prompts.
type PromptData struct {
	Role    string
	Company string
	Profile string
}

var systemTemplate = template.Must(template.New("system").Parse(
	`You are a cover letter writing assistant. The finished letter must fit on a single page.

Here is the candidate's personal profile for context:
{{.Profile}}

Write only the body of the letter:
- Write 2-3 paragraphs tailored to the role and company, using the profile.
- Do not write a greeting such as "Dear Hiring Team," and do not write a closing or signature. Both are already part of the template.
- Separate paragraphs with a single newline character, never with a blank line.
- Return plain text only, without markdown, headings or placeholders.
`))

var userTemplate = template.Must(template.New("user").Parse(
	`Write the cover letter body for the role of '{{.Role}}' at '{{.Company}}'.`))

// SystemPrompt renders the instructions given to the model.
func SystemPrompt(data PromptData) (string, error) {
	return render(systemTemplate, data)
}

// UserPrompt renders the request for a single letter.
func UserPrompt(data PromptData) (string, error) {
	return render(userTemplate, data)
}

func render(tmpl *template.Template, data PromptData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

// LoadProfile reads the candidate profile. A missing or empty profile is an error.
func LoadProfile(path string) (string, error) {
	if path == "" {
		return "", errors.New("profile file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("profile file %s not found; create it or set COVERLETTER_PROFILE_FILE", path)
		}
		return "", fmt.Errorf("failed to read profile file %s: %w", path, err)
	}
	profile := strings.TrimSpace(string(data))
	if profile == "" {
		return "", fmt.Errorf("profile file %s is empty", path)
	}
	return profile, nil
}
