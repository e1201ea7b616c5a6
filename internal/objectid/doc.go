// internal/objectid/doc.go

/*
Package objectid provides the stable identifier that names an equation object
inside the document store.

An ID is a comparable value type, so it can be used directly as a map key by
the compilation queue and the stores. Its canonical text form is the UUID
string, which is also the form used for persisted keys.
*/
package objectid
