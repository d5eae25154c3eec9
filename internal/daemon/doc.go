// Package daemon assembles and runs the control loop: lock, store, serial
// session, hotplug watcher and scheduler, with teardown in reverse order.
package daemon
