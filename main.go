package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/wrtpod/wrtpod/cmd"
)

var (
	version string
	commit  string
	date    string
)

func main() {
	cmd.Execute(version, commit, date)
}
