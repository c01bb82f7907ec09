// Package printing builds printable documents (fee chalans, invoices and
// payment receipts) from records plus the school profile, and defines the
// renderer and storage ports the print pipeline runs on.
package printing
