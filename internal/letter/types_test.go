package letter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/coverletter/internal/config"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr string
	}{
		{"valid", Request{Role: "SWE", Company: "Acme"}, ""},
		{"missing role", Request{Company: "Acme"}, "role is required"},
		{"blank company", Request{Role: "SWE", Company: " \t"}, "company is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequest_Normalize(t *testing.T) {
	req := Request{Role: "  Software Engineer ", Company: "\tAcme\n"}.Normalize()
	assert.Equal(t, Request{Role: "Software Engineer", Company: "Acme"}, req)
}

func TestNewTemplate(t *testing.T) {
	cfg := config.Config{
		CompanyToken: config.DefaultCompanyToken,
		RoleToken:    config.DefaultRoleToken,
		BodyToken:    config.DefaultBodyToken,
	}

	tmpl, err := NewTemplate("https://docs.google.com/document/d/1efTTgaz9Lck95iVtZzSfpi6KhidWzg3c_lk1z6zA73I/edit?tab=t.0", cfg)
	require.NoError(t, err)
	assert.Equal(t, "1efTTgaz9Lck95iVtZzSfpi6KhidWzg3c_lk1z6zA73I", tmpl.ID)
	assert.Equal(t, []string{"{{COMPANY_NAME}}", "{{ROLE_NAME}}", "{{GENERATED_BODY}}"}, tmpl.Tokens())

	_, err = NewTemplate("not a document", cfg)
	assert.Error(t, err)

	cfg.BodyToken = cfg.RoleToken
	_, err = NewTemplate("1efTTgaz9Lck95iVtZzSfpi6KhidWzg3c_lk1z6zA73I", cfg)
	assert.Error(t, err)
}

func TestStepError(t *testing.T) {
	cause := errors.New("boom")

	err := &StepError{Step: StepCopy, Err: cause}
	assert.Equal(t, `step "copy" failed: boom`, err.Error())
	assert.False(t, err.Orphaned())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal", err.Kind())

	err = &StepError{Step: StepFill, DocumentID: "abc", Err: cause}
	assert.Equal(t, `step "fill" failed for document abc: boom`, err.Error())
	assert.True(t, err.Orphaned())

	err.CleanedUp = true
	assert.False(t, err.Orphaned())
}
