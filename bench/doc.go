// Package bench times k-d tree builds and queries against an oracle index and
// cross-checks every answer.
package bench
