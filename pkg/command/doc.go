/*
Package command implements the command engine that centralizes every mutation of
the document.

A Command is validated, checked against its precondition and executed; the
outcome is recorded as an Execution in a bounded history. Middlewares observe
executions at three stages (Before, After, Finally) and can never abort them.
Failures are classified as *Error values whose Kind tells authorization,
validation, precondition and execution failures apart.

Run may be called concurrently; Queue and Enqueue serialize callers through a
single FIFO drain.
*/
package command
