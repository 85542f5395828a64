// cmd/annostream/main.go
package main

import (
	"annostream/internal/app"
	"annostream/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
