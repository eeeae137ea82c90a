// Package ratelimit provides the process-wide scheduler that serializes remote
// extraction calls against a request and token budget.
//
// A single Scheduler is constructed at startup and shared by every remote
// client. Await dispatches callers one at a time, no closer together than the
// computed minimum interval and never before a server-issued not-before time
// recorded through RecordBackoff. EstimateWait reports the same wait without
// blocking so callers can choose to advise, wait, or bail out first.
package ratelimit
