package main

import "github.com/urfave/cli/v2"

var envFileFlag = &cli.StringFlag{
	Name:    "env-file",
	Aliases: []string{"e"},
	Usage:   "Path to a .env file to load before reading configuration",
	EnvVars: []string{"ENV_FILE"},
}
