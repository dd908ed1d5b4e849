// Package format converts 16-bit register words to and from display text.
//
// Eight display formats are supported. U16, I16, HEX, BIN and ASCII show a
// single word. U32, I32 and F32 combine a register pair: the even address
// holds the low word and the odd address the high word, so the 32-bit value
// is high<<16 | low. F32 reinterprets that bit pattern as an IEEE-754
// single precision float.
//
// Decoding is total: every word has a rendering. Encoding parses user input
// back into one word (16-bit formats) or two words [low, high] (32-bit
// formats) and fails with ErrInvalidInput when the text is not a number in
// the requested format. ASCII encoding never fails.
//
// Everything here is pure and safe for concurrent use.
package format
