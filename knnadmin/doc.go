// Package knnadmin exposes a knn_admin virtual table that rebuilds and
// persists the indices of knn shadow tables on demand.
package knnadmin
