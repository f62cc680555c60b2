// Package host provides the command host that executes configured
// commands as local processes.
//
// Commands are declared in the config file:
//
//	[[host.commands]]
//	name = "git.status"
//	run = ["git", "status", "--short"]
//	description = "Show working tree status"
//	dir = "~/src/project"
//
// Tool arguments are appended to the run vector. The command table is
// read from the config store on every call, so a configuration reload
// takes effect without restarting.
package host
