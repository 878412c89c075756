// Package dataset supplies point sets to the k-d tree and its oracles. It
// includes:
//   - Point model and Store interface
//   - SQLiteStore: durable, dataset-scoped point storage
//   - Schema helpers shared with the knn virtual table shadow tables
//   - Point encoding (BLOB)
//   - Deterministic synthetic dataset and query generation
package dataset
