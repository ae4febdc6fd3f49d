/*
Package observability exposes Prometheus metrics for the builder.

Metrics plugs into the command engine as a Finally middleware, into the hook
manager as an action observer, and into the drop resolver. Each Metrics owns its
own registry so several builders in one process never collide.
*/
package observability
