/*
Package session manages live chart instances and their persistence.

The engine itself is single-caller: one goroutine, one dispatch at a
time. The Manager is the concurrency boundary in front of it. It keys
engines by instance id, serializes access per instance with refcounted
in-process locks, optionally coordinates across replicas through a
distributed locker, and persists a snapshot after every dispatch so
instances survive process restarts.
*/
package session
