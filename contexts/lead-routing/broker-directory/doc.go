// Package brokerdirectory exposes the broker roster to the rest of Lares.
//
// The distribution engine reads eligibility and scoring attributes from here
// and writes exactly one thing back: the completed-assignment counter.
// Broker CRUD and user management live elsewhere.
package brokerdirectory
