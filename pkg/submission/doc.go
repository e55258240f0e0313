// Package submission posts collected form values to the submission endpoint
// and classifies its answer into success, server validation errors or an
// unknown failure.
package submission
