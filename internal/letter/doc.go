// Package letter sequences the cover letter pipeline.
//
// A Pipeline runs its steps strictly in order:
//
//	compose -> copy -> fill -> [verify] -> export
//
// The resource id returned by the copy step is the only input of every later
// Google step. The first failing step halts the run and is reported as a
// *StepError naming the step and, once the copy exists, the document id.
// Optionally the orphaned copy is deleted when a later step fails.
package letter
