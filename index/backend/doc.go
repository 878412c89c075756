// Package backend constructs index.Index implementations by kind name.
package backend
