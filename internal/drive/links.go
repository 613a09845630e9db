package drive

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var documentIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,100}$`)

// ValidateDocumentID checks if a document ID has a valid format.
// Google document IDs are alphanumeric with hyphens and underscores.
func ValidateDocumentID(docID string) bool {
	return documentIDPattern.MatchString(docID)
}

// ResolveDocumentID accepts a bare document id or a Google Docs/Drive URL
// and returns the document id.
//
// Supported URL forms:
//
//	https://docs.google.com/document/d/{id}/edit?tab=t.0
//	https://drive.google.com/file/d/{id}/view
//	https://drive.google.com/open?id={id}
func ResolveDocumentID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("document reference is empty")
	}

	if !strings.Contains(ref, "://") {
		if !ValidateDocumentID(ref) {
			return "", fmt.Errorf("invalid document id %q", ref)
		}
		return ref, nil
	}

	id, err := parseDocumentURL(ref)
	if err != nil {
		return "", err
	}
	if !ValidateDocumentID(id) {
		return "", fmt.Errorf("invalid document id %q in URL %s", id, ref)
	}
	return id, nil
}

func parseDocumentURL(urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host != "docs.google.com" && host != "drive.google.com" {
		return "", fmt.Errorf("not a Google Docs or Drive URL: %s", urlStr)
	}

	// Pattern: /document/d/{id}/... or /file/d/{id}/...
	parts := strings.Split(parsedURL.Path, "/")
	for i, part := range parts {
		if part == "d" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}

	// Pattern: /open?id={id}
	if id := parsedURL.Query().Get("id"); id != "" {
		return id, nil
	}

	return "", fmt.Errorf("could not extract document ID from URL: %s", urlStr)
}
