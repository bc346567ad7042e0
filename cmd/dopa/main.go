package main

import "github.com/realQhimself/dopamine-app/cmd/dopa/root"

func main() {
	root.Execute()
}
