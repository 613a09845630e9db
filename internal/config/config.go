package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Default placeholder tokens present in the cover letter template.
const (
	DefaultCompanyToken = "{{COMPANY_NAME}}"
	DefaultRoleToken    = "{{ROLE_NAME}}"
	DefaultBodyToken    = "{{GENERATED_BODY}}"
)

// Composer backends.
const (
	BackendGollm  = "gollm"
	BackendOpenAI = "openai"
)

const (
	appName = "coverletter"

	// DefaultTimeout bounds a whole CLI run, including an interactive login.
	DefaultTimeout = 5 * time.Minute
)

// Config holds every setting needed to run the cover letter pipeline.
type Config struct {
	// TemplateID is the Google Docs template, as a bare id or any Docs/Drive URL.
	TemplateID string

	// Placeholder tokens replaced in the copied document. Matching is case-sensitive.
	CompanyToken string
	RoleToken    string
	BodyToken    string

	// ProfileFile is the plain-text candidate profile given to the composer.
	ProfileFile string

	// OutputDir is where the exported PDF is written (default: current directory).
	OutputDir string

	// CredentialsFile is the OAuth client-secret JSON downloaded from Google Cloud Console.
	// It is only needed for the first interactive login or when the stored
	// credential lacks client information.
	CredentialsFile string

	// TokenFile is where the OAuth credential is persisted.
	TokenFile string

	// Timeout bounds a full pipeline run. Zero disables the bound.
	Timeout time.Duration

	// CleanupOnFailure deletes the copied document when a later step fails.
	CleanupOnFailure bool

	// VerifyPlaceholders reads the document back after filling and fails the
	// run if any template token is still present.
	VerifyPlaceholders bool

	// SanitizeFilenames replaces path-unsafe characters in the derived title
	// and PDF file name.
	SanitizeFilenames bool

	LLM LLMConfig
}

// LLMConfig configures the body composer.
type LLMConfig struct {
	// Backend is "gollm" (default) or "openai".
	Backend string

	// Provider is the gollm provider name (openai, anthropic, groq, ollama, ...).
	Provider string

	// Model is the model identifier passed to the backend.
	Model string

	// APIKey overrides the backend's own environment lookup when set.
	APIKey string

	// BaseURL points the openai backend at an OpenAI-compatible endpoint.
	BaseURL string

	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns a Config populated from environment variables.
func DefaultConfig() Config {
	return Config{
		TemplateID:         getEnvOrDefault("COVERLETTER_TEMPLATE_ID", ""),
		CompanyToken:       getEnvOrDefault("COVERLETTER_COMPANY_TOKEN", DefaultCompanyToken),
		RoleToken:          getEnvOrDefault("COVERLETTER_ROLE_TOKEN", DefaultRoleToken),
		BodyToken:          getEnvOrDefault("COVERLETTER_BODY_TOKEN", DefaultBodyToken),
		ProfileFile:        getEnvOrDefault("COVERLETTER_PROFILE_FILE", "profile.txt"),
		OutputDir:          getEnvOrDefault("COVERLETTER_OUTPUT_DIR", "."),
		CredentialsFile:    getEnvOrDefault("COVERLETTER_CREDENTIALS_FILE", "credentials.json"),
		TokenFile:          getEnvOrDefault("COVERLETTER_TOKEN_FILE", DefaultTokenFile()),
		Timeout:            getEnvDurationOrDefault("COVERLETTER_TIMEOUT", DefaultTimeout),
		CleanupOnFailure:   getEnvBoolOrDefault("COVERLETTER_CLEANUP_ON_FAILURE", false),
		VerifyPlaceholders: getEnvBoolOrDefault("COVERLETTER_VERIFY_PLACEHOLDERS", false),
		SanitizeFilenames:  getEnvBoolOrDefault("COVERLETTER_SANITIZE_FILENAMES", false),
		LLM: LLMConfig{
			Backend:     getEnvOrDefault("COVERLETTER_LLM_BACKEND", BackendGollm),
			Provider:    getEnvOrDefault("COVERLETTER_LLM_PROVIDER", "openai"),
			Model:       getEnvOrDefault("COVERLETTER_LLM_MODEL", "gpt-4o-mini"),
			APIKey:      getEnvOrDefault("COVERLETTER_LLM_API_KEY", ""),
			BaseURL:     getEnvOrDefault("COVERLETTER_LLM_BASE_URL", ""),
			Temperature: getEnvFloatOrDefault("COVERLETTER_LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvIntOrDefault("COVERLETTER_LLM_MAX_TOKENS", 1024),
		},
	}
}

// Validate checks if the configuration is usable for a pipeline run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TemplateID) == "" {
		return fmt.Errorf("template id is required; set COVERLETTER_TEMPLATE_ID")
	}
	if err := c.ValidateTokens(); err != nil {
		return err
	}
	if c.TokenFile == "" {
		return fmt.Errorf("token file path is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	switch c.LLM.Backend {
	case BackendGollm, BackendOpenAI:
	default:
		return fmt.Errorf("invalid LLM backend %q, must be one of: %s, %s", c.LLM.Backend, BackendGollm, BackendOpenAI)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM model is required")
	}
	if c.LLM.Backend == BackendGollm && c.LLM.Provider == "" {
		return fmt.Errorf("LLM provider is required for the %s backend", BackendGollm)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM temperature must be between 0 and 2, got %f", c.LLM.Temperature)
	}
	return nil
}

// ValidateTokens checks that the three placeholder tokens are set and distinct.
func (c *Config) ValidateTokens() error {
	tokens := []struct{ name, value string }{
		{"company", c.CompanyToken},
		{"role", c.RoleToken},
		{"body", c.BodyToken},
	}
	seen := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		if tok.value == "" {
			return fmt.Errorf("%s placeholder token must not be empty", tok.name)
		}
		if other, ok := seen[tok.value]; ok {
			return fmt.Errorf("%s and %s placeholder tokens are identical (%q)", other, tok.name, tok.value)
		}
		seen[tok.value] = tok.name
	}
	return nil
}

// DefaultTokenFile returns the credential path inside the user cache directory.
func DefaultTokenFile() string {
	return filepath.Join(userCacheDir(), appName, "google.token")
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault returns the boolean value of an environment variable or a default value.
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvFloatOrDefault returns the float64 value of an environment variable or a default value.
func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"LOCALAPPDATA", "TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return "."
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
