// Package rowview materialises monitor rows for front ends.
//
// A Registry receives every RowView the engine renders and keeps one row per
// register in the order rows first appeared. It also tracks the selected row,
// which arrow-key navigation moves through that order.
//
// Registry is owned by the engine Loop; front ends read it through
// Loop.Call.
package rowview
