package contextkeys

// contextKey is an unexported type to prevent collisions with context keys
// defined in other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "docstore context key " + string(c)
}

// RequestIDKey is the key for the request correlation id in context.Context.
const RequestIDKey = contextKey("requestID")

// DatabaseIDKey is the key for the logical database id in context.Context.
const DatabaseIDKey = contextKey("databaseID")

// ContainerIDKey is the key for the container id in context.Context.
const ContainerIDKey = contextKey("containerID")

// OperationKey is the key for the repository operation name in context.Context.
const OperationKey = contextKey("operation")

// ComponentKey is the key for the component name in context.Context.
const ComponentKey = contextKey("component")
