package main

import "github.com/rapidgeo/rapid/cmd/rapidapi/cmd"

func main() {
	cmd.Execute()
}
