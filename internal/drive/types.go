package drive

// PDFMimeType is the export format of the filled cover letter.
const PDFMimeType = "application/pdf"

// FileInfo describes a Drive file created by CopyTemplate.
type FileInfo struct {
	// ID is the resource id of the new document
	ID string `json:"id"`

	// Name is the title the copy was given
	Name string `json:"name"`

	// WebViewLink opens the document in Google Docs
	WebViewLink string `json:"webViewLink,omitempty"`
}

// ExportResult describes a PDF written by ExportPDF.
type ExportResult struct {
	DocumentID string `json:"documentId"`
	Path       string `json:"path"`
	Bytes      int64  `json:"bytes"`
}
