/*
Package queue provides queues where extraction-iteration tasks can be
pushed for workers to pull, process and complete, together with an
in-memory implementation.
*/
package queue
