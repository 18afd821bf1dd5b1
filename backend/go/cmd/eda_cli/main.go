package main

import "autoeda/backend/go/cmd/eda_cli/cmd"

func main() {
	cmd.Execute()
}
