// Package knn implements a SQLite virtual table answering exact single
// nearest-neighbor queries with MATCH. Each virtual table has a shadow table
// (_knn_<name>) holding dataset-scoped points. The serialized index of each
// dataset is persisted in kdtree_storage, dropped by triggers whenever the
// shadow table changes, and cached in memory across connections.
//
// Usage:
//
//	CREATE VIRTUAL TABLE pts USING knn(point_id, index=kd);
//	INSERT INTO _knn_pts(dataset_id, id, coords) VALUES('ds', 'a', ?);
//	SELECT point_id, distance FROM pts WHERE dataset_id = 'ds' AND point_id MATCH '[9,2]';
//
// The index option selects the backend: kd (default), brute, gonum or cover.
package knn
