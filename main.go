package main

import (
	"sqlite2pg/cmd"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	cmd.Execute()
}
