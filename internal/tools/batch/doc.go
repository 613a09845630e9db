// Package batch runs a tool operation over several items and reports one
// result per item, so that a failure for one item does not hide the others.
package batch
