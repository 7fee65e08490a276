// Package generator compiles an environment of the control-plane model into
// the gateway's native ocelot.json document.
//
// Compile is a pure function of an EnvironmentView. Marshal produces the
// canonical serialization (two-space indented JSON with a trailing newline)
// and Hash its lowercase hex SHA-256, so identical models always yield
// byte-identical output and identical hashes.
//
// # Usage
//
//	gen := generator.New(store)
//	doc, err := gen.Build(envID)
//	if errors.Is(err, model.ErrNotFound) {
//	    // unknown environment
//	}
//	data, _ := generator.Marshal(doc)
//	hash := generator.Hash(data)
package generator
