// Package wahlrecht scrapes the federal poll overview on wahlrecht.de.
//
// The overview page is a single HTML table with one column per polling institute
// and one row per party, plus rows for the release date, the number of people
// surveyed and the commissioning client. Each institute column becomes one
// survey.Survey holding that institute's most recent published poll.
package wahlrecht
