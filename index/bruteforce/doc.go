// Package bruteforce provides an exact nearest-neighbor index that answers
// queries by scanning all points. It is the reference every other backend is
// checked against, and its compact binary format is shared by the oracle
// backends for persistence.
package bruteforce
