/*
Package domain contains the document tree model of the canopy page builder.

It defines the element tree and its serialized forms. The package is kept pure
and free of I/O, persistence and locking; callers serialize access themselves.

# Key Entities

  - Container: one node of the tree (layout container or widget) with ordered props.
  - ElementData: the JSON form of a Container and its subtree.
  - Document: a page, i.e. its root elements plus settings and metadata.
  - ElementDiff: the changes between two snapshots of an element.
*/
package domain
