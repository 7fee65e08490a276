// Package api exposes the GateControl control plane over HTTP.
//
// All entity and pipeline endpoints live under /api and speak JSON with
// camelCase fields. Create and update return the persisted entity, delete
// answers 204, and unknown ids answer 404. Publishing always answers 200
// with the resulting record, including attempts rejected by validation; only
// I/O failures surface as 500. History and audit reads are returned newest
// first.
//
// Mutations are attributed to the X-Actor request header when present.
package api
