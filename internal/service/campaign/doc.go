// Package campaign implements campaign lifecycle management.
//
// The service layer contains all business logic for creating, activating,
// pausing, cancelling, and completing publishing campaigns. It depends on
// the repository interface defined in this package and should never import
// from api/.
//
// Repository implementations live in repository/postgres/.
package campaign
