// Package cmd contains the groundskeeper CLI commands and their fx wiring.
//
// Commands are provided into the "commands" group and assembled into the root
// cli.Command by Run. The migrate and dump commands derive their descriptor
// collections from the configured migration directories; status reports the
// ledger's current version and lock state.
package cmd
