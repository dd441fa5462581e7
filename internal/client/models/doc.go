// Package models defines the client-side data model of the Spotlight client:
// the authenticated session, public talent profiles, the editable profile
// document and its independently managed sub-resources.
//
// The backend stores documents with Mongo-style identifiers, so most records
// accept either "id" or "_id" when decoded. Talent collections (skills,
// projects, experiences) may arrive populated or as bare identifiers; see Ref.
package models
