// Package files locates sales CSV inputs and writes pipeline outputs.
//
// Discovery lists the .csv files of an input folder in name order so every
// run ingests them in the same sequence. Manager owns the output directory
// and replaces files atomically, so a failed export never leaves a
// truncated summary behind.
package files
