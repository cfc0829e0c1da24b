package main

import "github.com/pollbase/pollbase-go/cmd/pollbase/cmd"

func main() {
	cmd.Execute()
}
