// Package portscan locates the instrument's serial device: a fixed path
// from the config, or an automatic sweep that probes each host port for the
// instrument's firmware banner, plus a udev hotplug watcher for the chosen
// device.
package portscan
