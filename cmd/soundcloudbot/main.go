package main

import "github.com/mldwnk1488/soundcloudbot/cmd/soundcloudbot/cmd"

func main() {
	cmd.Execute()
}
