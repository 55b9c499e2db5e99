// Package github watches pull requests through the gh CLI and reports when
// they change between runs.
package github
