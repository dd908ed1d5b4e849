// Package register identifies device registers on the protocol mock.
//
// A register is named by a device key (an uppercase letter sequence such as
// "D", "M" or "W") and a non-negative word address. Together they form a Ref,
// written as the key immediately followed by the decimal address: "D100".
//
// ParseTarget turns user input into a Ref. The address part is read as
// hexadecimal when it contains any of the letters A-F, so "D1A" is D26.
// ParseTargetLenient never fails and is used where the caller always needs
// some register to aim at.
//
// 32-bit display formats combine two adjacent words. The pair is anchored at
// the even address (low word) and its odd neighbour holds the high word;
// Ref.Anchor and Ref.Partner give the two halves.
package register
