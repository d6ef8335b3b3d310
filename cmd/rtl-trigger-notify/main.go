package main

import "github.com/oshokin/rtl-trigger/cmd/rtl-trigger-notify/cmd"

func main() {
	cmd.Execute()
}
