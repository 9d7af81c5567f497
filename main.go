package main

import "github.com/controlVector/controlvector-frontend/cmd"

func main() {
	cmd.Execute()
}
