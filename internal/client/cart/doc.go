// Package cart keeps a local copy of the remote cart for instant feedback.
//
// The server is the system of record. Each mutation has its own recovery
// when the server refuses it:
//   - Add is remote-first; nothing changes locally on failure.
//   - UpdateQuantity applies the new quantity at once and puts back the
//     previous quantity of that one item on failure.
//   - Remove drops the item at once and resynchronizes the whole cart with
//     a fetch on failure.
//   - Clear is remote-first.
//
// At most one line exists per product, quantities are always positive and
// the subtotal is computed on demand, never stored.
package cart
