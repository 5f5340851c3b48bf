// The main package for the crawler executable.
package main

import (
	"recipebook/crawler/cmd"
)

func main() {
	cmd.Execute()
}
