// Package model defines the canonical GateControl entities: environments,
// services, routes, change requests, publish records and audit entries.
//
// Entities are plain structs with camelCase JSON tags. Each one implements
// Entity so collections can be searched by id without reflection. Route
// policies are tagged optionals (see Optional) so that an absent policy is
// never confused with a zero-valued one.
//
// Constructors such as NewRoute and NewService return values carrying the
// documented defaults. Decoding JSON into a constructed value keeps those
// defaults for fields the payload omits:
//
//	route := model.NewRoute()
//	if err := json.NewDecoder(r.Body).Decode(&route); err != nil {
//	    return err
//	}
package model
