// Package product implements the product listing: the role-gated grid, its row
// and header actions, bulk selection, export trigger and the sibling show and
// delete dialogs it talks to over the event bus.
package product
