// Package sheetsbackend implements sheetrepo.Backend for Google Sheets and
// for local xlsx workbooks.
package sheetsbackend
