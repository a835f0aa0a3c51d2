// Package core holds the request and result models shared by every stage of
// the extraction pipeline, together with request validation and the rules that
// turn per-item outcomes into a batch status.
package core
