// Package tasks holds the background jobs of the outreach server:
// the periodic scheduler pass and reply-triggered mail.
package tasks
