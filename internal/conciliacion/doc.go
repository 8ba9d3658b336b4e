// Package conciliacion holds the payment-to-invoice arithmetic: the FIFO
// split of a payment across open invoices, and the read-only breakdown of an
// invoice's paid balance into paid and owed product units.
//
// Nothing here touches the database. Callers load invoices, call these
// functions and decide what to persist.
package conciliacion
