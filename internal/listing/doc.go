// Package listing declares, once per listed record type, which fields can be
// searched and sorted and how dotted field paths resolve for exports.
package listing
