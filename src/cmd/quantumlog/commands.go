// FILE: src/cmd/quantumlog/commands.go
package main

import (
	"fmt"
	"os"
	"sort"

	"quantumlog/src/internal/version"
)

// CommandHandler is implemented by every subcommand
type CommandHandler interface {
	Execute(args []string) error
	Description() string
	Help() string
}

// CommandRouter dispatches CLI arguments to a subcommand
type CommandRouter struct {
	commands map[string]CommandHandler
}

// NewCommandRouter registers the available commands
func NewCommandRouter() *CommandRouter {
	router := &CommandRouter{
		commands: make(map[string]CommandHandler),
	}

	router.commands["serve"] = &serveCommand{}
	router.commands["watch"] = &watchCommand{}
	router.commands["version"] = &versionCommand{}
	router.commands["help"] = &helpCommand{router: router}

	return router
}

// Route runs the named command. With no command, or when the first
// argument is a flag, it runs serve.
func (r *CommandRouter) Route(args []string) error {
	if len(args) < 2 {
		return r.commands["serve"].Execute(nil)
	}

	cmdName := args[1]

	for _, arg := range args[1:] {
		if arg == "-h" || arg == "--help" {
			if handler, exists := r.commands[cmdName]; exists && cmdName != "help" {
				fmt.Print(handler.Help())
				return nil
			}
			return r.commands["help"].Execute(nil)
		}
	}

	if cmdName == "-v" || cmdName == "--version" {
		return r.commands["version"].Execute(nil)
	}

	handler, exists := r.commands[cmdName]
	if !exists {
		if cmdName[0] != '-' {
			return fmt.Errorf("unknown command: %s\n\nRun 'quantumlog help' for usage", cmdName)
		}
		return r.commands["serve"].Execute(args[1:])
	}

	return handler.Execute(args[2:])
}

// ShowCommands lists the registered commands on stderr
func (r *CommandRouter) ShowCommands() {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", name, r.commands[name].Description())
	}
	fmt.Fprintln(os.Stderr, "\nUse 'quantumlog <command> --help' for command-specific help")
}

type versionCommand struct{}

func (c *versionCommand) Execute(args []string) error {
	fmt.Println(version.String())
	return nil
}

func (c *versionCommand) Description() string {
	return "Show version information"
}

func (c *versionCommand) Help() string {
	return `Version Command - Show quantumlog version information

Usage:
  quantumlog version
  quantumlog -v
  quantumlog --version

Output includes the version tag, commit, build time and wire protocol version.
`
}

type helpCommand struct {
	router *CommandRouter
}

func (c *helpCommand) Execute(args []string) error {
	if len(args) > 0 {
		if handler, ok := c.router.commands[args[0]]; ok {
			fmt.Print(handler.Help())
			return nil
		}
	}
	fmt.Print(helpText)
	return nil
}

func (c *helpCommand) Description() string {
	return "Display help information"
}

func (c *helpCommand) Help() string {
	return helpText
}
