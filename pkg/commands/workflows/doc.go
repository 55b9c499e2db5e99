// Package workflows is the catalog of named, parameterized workflows and the
// commands that list and run them.
package workflows
