// Package openapi builds form descriptors from the JSON request body of an
// OpenAPI 3 operation, giving services that already publish a contract a
// second way to describe their forms.
package openapi
