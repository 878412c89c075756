// Package visual exports the splitting planes of a 2-D k-d tree, either as
// segments clipped to a region or as a MATLAB script that draws them.
package visual
