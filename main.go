package main

import "github.com/sendwell/cloud-setup/cmd/root"

func main() {
	root.Execute()
}
