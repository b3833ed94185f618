// Package domain defines the battle engine entities: agents, battles,
// rounds, and votes, plus the battle status transition table.
//
// Domain constructors validate input and take injectable clock and id
// generator functions so services and tests control time and identity.
package domain
