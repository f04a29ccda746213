// Package models defines the domain models shared by the Compartilha client.
//
// # Wire Models
//
// The bill-splitting API speaks Portuguese JSON. These models carry the API's
// field names in their struct tags so they can be decoded straight from
// responses:
//   - Division: the bill being split ("divisao")
//   - Item: a purchased line with quantity and unit price ("item")
//   - Person: a participant ("pessoa")
//   - Share: one person's quantity of one item ("distribuicao" entries)
//   - Totals: the per-person breakdown returned by the totals endpoint
//
// # Local Models
//
//   - User: the identity behind an access token (from the identity provider)
//   - WebSession: a browser session kept by the web server
//
// # Design Principles
//
//  1. **The server is the source of truth**: a Division is only ever replaced
//     wholesale by a confirmed API response, never patched in place.
//  2. **Derived values are computed, not stored**: subtotals, fees and totals
//     are produced by the calculator package.
//  3. **IDs, not pointers**: items reference people by ID strings.
package models
