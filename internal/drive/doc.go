// Package drive provides the Google Drive operations of the cover letter
// pipeline: copying the template document and exporting the filled copy as
// a PDF.
//
// Every call asks the configured google.CredentialSource for a credential
// right before issuing its request, so a refreshed or newly authorized
// credential is always used. Failures are reported as *OperationError.
//
// Example usage:
//
//	client := drive.NewClient(provider)
//	copied, err := client.CopyTemplate(ctx, templateID, "Acme - Engineer - Cover Letter")
//	if err != nil {
//	    return err
//	}
//	result, err := client.ExportPDF(ctx, copied.ID, "Acme_Cover_Letter.pdf")
package drive
