// Package registry holds the element type catalog: descriptors with default props,
// optional factories and UI categories. A Registry is the domain.Factory used to
// instantiate nodes from raw element data.
package registry
