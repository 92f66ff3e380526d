// Package pipewalk runs build pipelines described as trees of tasks,
// sequences and selectors.
package pipewalk

// Version is the pipewalk release.
const Version = "0.1.0"
