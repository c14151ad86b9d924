// Package dawum provides an HTTP client for the DAWUM poll database (dawum.de).
//
// DAWUM publishes its complete survey database as one JSON document plus a small
// text file holding the timestamp of the last change. The client fetches both;
// Data resolves the document's ID references (parliaments, institutes, taskers,
// methods, parties) into survey.Survey values.
package dawum
