// Package survey provides provider-independent types for German election polls.
//
// A Survey is a single published poll: who ran it, who commissioned it, how many
// people took part, and the share each party received. Query selects the most
// recent survey for a set of parliaments, and SortedResults orders party results
// for presentation without mutating the survey. Each survey gets a deterministic
// SHA1 fingerprint from its source and ID so repeated runs can tell whether a
// survey was already delivered.
package survey
