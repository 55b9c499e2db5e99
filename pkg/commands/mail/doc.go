// Package mail searches and sends Gmail messages through the gog CLI and
// buckets messages for triage.
package mail
