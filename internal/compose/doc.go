// Package compose writes the body of a cover letter with a language model.
//
// Every backend renders the same prompt from the candidate profile, the role
// and the company, and returns plain text whose paragraphs are separated by a
// single newline. Two backends are available:
//
//   - gollm: any provider supported by github.com/teilomillet/gollm
//   - openai: the OpenAI chat completions API or a compatible endpoint
//
// Use New to build the backend selected by the configuration.
package compose
