// cmd/sautils/main.go
package main

import (
	"annostream/internal/saapp"
	"annostream/internal/appshell"
)

func main() { appshell.Main(saapp.RunContext) }
