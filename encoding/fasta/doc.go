// Package fasta contains code for reading multi-FASTA reference files as a
// rolling sequence of fixed-size, overlapping windows.  Unlike a whole-file
// FASTA loader, this reader never holds more than one window's worth of
// sequence in memory, which is what makes it usable against references far
// larger than the machine's RAM.
//
// FASTA files consist of a number of named sequences that may be
// interrupted by newlines.  For example:
//
//	>chr7
//	ACGTAC
//	GAGGAC
//	GCG
//	>chr8
//	ACGT
//
// Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text after a space is retained in
// RefIDFull but dropped from RefID.
package fasta
