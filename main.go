// The main package for the orgextract executable.
package main

import "github.com/JakeFAU/orgextract/cmd"

func main() {
	cmd.Execute()
}
