/*
Package session serializes access to persisted documents.

A Manager wraps a DocumentStore with per-document locks so concurrent editors in
one process cannot interleave read-modify-write cycles. With a DistributedLocker
the same guarantee extends across replicas.
*/
package session
