package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	docs "google.golang.org/api/docs/v1"
)

func paragraph(runs ...string) *docs.StructuralElement {
	elems := make([]*docs.ParagraphElement, 0, len(runs))
	for _, r := range runs {
		elems = append(elems, &docs.ParagraphElement{TextRun: &docs.TextRun{Content: r}})
	}
	return &docs.StructuralElement{Paragraph: &docs.Paragraph{Elements: elems}}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		doc  *docs.Document
		want string
	}{
		{
			name: "nil document",
			doc:  nil,
			want: "",
		},
		{
			name: "legacy body with split runs",
			doc: &docs.Document{Body: &docs.Body{Content: []*docs.StructuralElement{
				paragraph("Dear ", "{{COMPANY_NAME}}", ",\n"),
				{SectionBreak: &docs.SectionBreak{}},
				paragraph("Regards\n"),
			}}},
			want: "Dear {{COMPANY_NAME}},\nRegards\n",
		},
		{
			name: "table cells",
			doc: &docs.Document{Body: &docs.Body{Content: []*docs.StructuralElement{
				{Table: &docs.Table{TableRows: []*docs.TableRow{
					{TableCells: []*docs.TableCell{
						{Content: []*docs.StructuralElement{paragraph("a")}},
						{Content: []*docs.StructuralElement{paragraph("b")}},
					}},
				}}},
			}}},
			want: "a\tb\t\n",
		},
		{
			name: "headers and footers in key order",
			doc: &docs.Document{
				Body: &docs.Body{Content: []*docs.StructuralElement{paragraph("body\n")}},
				Headers: map[string]docs.Header{
					"h.2": {Content: []*docs.StructuralElement{paragraph("second header\n")}},
					"h.1": {Content: []*docs.StructuralElement{paragraph("first header\n")}},
				},
				Footers: map[string]docs.Footer{
					"f.1": {Content: []*docs.StructuralElement{paragraph("{{ROLE_NAME}}\n")}},
				},
			},
			want: "body\nfirst header\nsecond header\n{{ROLE_NAME}}\n",
		},
		{
			name: "tabs take precedence and include child tabs",
			doc: &docs.Document{
				Body: &docs.Body{Content: []*docs.StructuralElement{paragraph("ignored\n")}},
				Tabs: []*docs.Tab{{
					DocumentTab: &docs.DocumentTab{Body: &docs.Body{Content: []*docs.StructuralElement{paragraph("tab one\n")}}},
					ChildTabs: []*docs.Tab{{
						DocumentTab: &docs.DocumentTab{Body: &docs.Body{Content: []*docs.StructuralElement{paragraph("child\n")}}},
					}},
				}},
			},
			want: "tab one\nchild\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.doc))
		})
	}
}

func TestFindTokens(t *testing.T) {
	tokens := []string{"{{COMPANY_NAME}}", "{{ROLE_NAME}}", "{{GENERATED_BODY}}"}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none left", "Dear Acme, Engineer", nil},
		{"one left", "Dear Acme, {{ROLE_NAME}}", []string{"{{ROLE_NAME}}"}},
		{"order follows tokens", "{{GENERATED_BODY}} {{COMPANY_NAME}}", []string{"{{COMPANY_NAME}}", "{{GENERATED_BODY}}"}},
		{"case sensitive", "{{company_name}}", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindTokens(tt.text, tokens))
		})
	}
}
