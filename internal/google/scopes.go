package google

// DefaultScopes are the OAuth scopes coverletter needs: full Drive access to
// copy the template and export the PDF, and Docs access to edit the copy.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/documents",
}

// missingScopes returns the entries of required that granted does not contain.
func missingScopes(granted, required []string) []string {
	have := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		have[s] = struct{}{}
	}
	var missing []string
	for _, s := range required {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}
