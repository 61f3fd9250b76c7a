// FILE: src/cmd/quantumlog/help.go
package main

const helpText = `quantumlog: request-scoped debug logging delivered to the browser console.

Usage:
  quantumlog [command] [options] [--section.key=value ...]

Commands:
  serve                    Run the demo server (default)
  watch                    Poll a page and replay its log on this terminal
  version                  Display version information
  help [command]           Display help

Common Options:
  -config <path>           Path to configuration file (default: quantumlog.toml)
  -log-level <level>       Operator log level: debug, info, warn, error
  -log-output <target>     Operator log target: stdout, stderr, none
  -quiet                   Suppress operator logging and console notices

Any config key can be overridden with --section.key=value, for example:
  quantumlog serve --transport.mode=header --server.port=9090
  quantumlog watch --watch.url=http://localhost:9090/ --watch.format=json

Environment Variables:
  QUANTUMLOG_CONFIG_FILE   Config file path
  QUANTUMLOG_CONFIG_DIR    Config directory
  QUANTUMLOG_<SECTION>_<KEY>  Override a config key (e.g. QUANTUMLOG_TRANSPORT_MODE)
`

const serveHelp = `Serve Command - Run the demo server

Every page request logs a group, a table and debug entries through a request
buffer; the buffer is transmitted with the response using the configured
transport mode. /status reports server state, /metrics exposes Prometheus
counters.

Usage:
  quantumlog serve [options]

Options:
  -mode <mode>             Transport mode: inline, cookie, header, both
  -port <port>             Listen port (overrides server.port)
  -hot-reload              Apply transport changes from the config file live

Try /?slow=1 or /?fail=1 to produce warning and error entries.
`

const watchHelp = `Watch Command - Replay a page's log on this terminal

Polls the page, drains log cookies and inline payloads, and prints each new
envelope. SIGHUP forces an immediate poll.

Usage:
  quantumlog watch [options]

Options:
  -url <url>               Page to poll (overrides watch.url)
  -file <path>             Replay the inline payload of a saved page instead
  -format <name>           Line format: txt, json, raw
  -interval <ms>           Delay between polls in milliseconds
`
