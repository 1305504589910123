package main

import "payflow/internal/app/server"

func main() {
	server.Run()
}
