// Package validation provides centralized input validation logic.
// This includes container and blob name rules, metadata key checks, and the
// metadata size cap applied during moves.
//
// Inputs are validated before any request is sent so that malformed names
// fail locally with ErrInvalidInput.
package validation
