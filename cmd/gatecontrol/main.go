// GateControl is the control plane for an Ocelot API gateway.
//
// It keeps a canonical model of environments, backend services and routes,
// compiles each environment into an Ocelot configuration document, validates
// it and publishes it to disk with an auditable history.
//
// Usage:
//
//	# Start the HTTP API
//	gatecontrol serve --config /etc/gatecontrol/config.yaml
//
//	# Print the compiled document of an environment
//	gatecontrol generate dev
//
//	# Validate and publish
//	gatecontrol validate dev
//	gatecontrol publish dev --actor alice --target gateway-1
//
//	# Import an existing ocelot.json
//	gatecontrol import ocelot.json --environment-name legacy
//
//	# Query the audit trail and check published files for drift
//	gatecontrol audit query --entity-type Route --limit 20
//	gatecontrol drift check
package main

import "os"

func main() {
	os.Exit(Execute())
}
