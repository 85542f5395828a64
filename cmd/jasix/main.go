// cmd/jasix/main.go
package main

import (
	"annostream/internal/jasixapp"
	"annostream/internal/appshell"
)

func main() { appshell.Main(jasixapp.RunContext) }
