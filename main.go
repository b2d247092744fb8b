package main

import "medcare-admin/internal/cmd"

func main() {
	cmd.Execute()
}
