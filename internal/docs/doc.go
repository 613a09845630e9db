// Package docs fills placeholder tokens in a copied Google Docs document.
//
// FillPlaceholders sends a single documents.batchUpdate containing one
// case-sensitive replaceAllText request per replacement. DocumentText reads a
// document back as plain text, which the pipeline uses to verify that no
// template token survived the fill.
//
// Example usage:
//
//	client := docs.NewClient(provider)
//	result, err := client.FillPlaceholders(ctx, documentID, []docs.Replacement{
//	    {Token: "{{COMPANY_NAME}}", Value: "Acme"},
//	    {Token: "{{ROLE_NAME}}", Value: "Engineer"},
//	    {Token: "{{GENERATED_BODY}}", Value: body},
//	})
package docs
