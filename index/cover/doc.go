// Package cover provides a cover-tree backed index.Index. It searches in
// float32, so it agrees with the exact backends only up to float32 rounding and
// serves as a second, structurally unrelated oracle.
package cover
