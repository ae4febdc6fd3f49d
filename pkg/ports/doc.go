/*
Package ports defines the ports (interfaces) of the canopy builder.

These interfaces decouple the core from external implementations, allowing the
builder to work with various storage backends and to be driven by different
transports.

# Key Interfaces

  - DocumentStore: persists and loads Documents.
  - DistributedLocker: serializes access to a document across replicas.
  - Builder: the facade surface used by the HTTP and MCP adapters.
*/
package ports
