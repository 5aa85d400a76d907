/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package service runs the units of the pdfgate process (HTTP servers, background workers)
// and stops them when the process receives a shutdown signal.
package service
