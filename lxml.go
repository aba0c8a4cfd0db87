// Package lxml contains shared helpers for the lxml XML tokenizer and
// formatter: byte utilities, diagnostic errors, and line/column recovery for
// a byte offset in a source file. The tokenizer itself lives in the xml
// subpackage, the buffered scalar reader in buffer, and the pretty-printer
// in fmtxml.
package lxml
