package execution

// Executor is a callback that will be called on received message with context.
// It should return an error only if an internal error happened, business failures travel as saga statuses.
type Executor func(execCtx MessageExecutionCtx) error
