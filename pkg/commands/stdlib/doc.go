// Package stdlib provides the general-purpose pipeline commands: process
// execution, approval gates, item shaping and direct snapshot access.
package stdlib
