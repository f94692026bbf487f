// Package grid defines the corner-point grid input model: pillars given by
// two anchor points, per-cell corner depths, activity flags and the
// compaction map from linear cell index to dense output slot.
// A Grid is treated as immutable once handed to the tessellator.
package grid
