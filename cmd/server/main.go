package main

import "lexflow/internal/app"

func main() {
	app.Run()
}
