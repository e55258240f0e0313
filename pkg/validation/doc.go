// Package validation checks submitted values against the rules implied by a
// form descriptor before anything is sent over the network.
package validation
