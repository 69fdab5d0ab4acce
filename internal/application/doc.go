// Package application wires a bootstrapped configuration into the
// hello-world host: it saves the effective configuration snapshot and
// builds the handlers, router and HTTP server, keeping the main package
// focused on bootstrap and shutdown.
package application
