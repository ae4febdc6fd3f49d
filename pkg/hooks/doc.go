/*
Package hooks implements the extension points of the builder.

Filters transform a value as it flows through a chain of callbacks; actions
notify observers of an event. Both are kept per tag and run in ascending
priority order, ties broken by registration order. A failing or panicking
callback is logged and skipped: the chain continues with the last good value.

Temporary hooks (Times, Once) unregister themselves after the dispatch in
which they were exhausted. Filter results can be cached (WithFilterCache);
the cache for a tag is dropped whenever a filter on that tag is added or removed.
*/
package hooks
