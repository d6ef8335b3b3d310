package main

import "github.com/oshokin/rtl-trigger/cmd/rtl-trigger/cmd"

func main() {
	cmd.Execute()
}
