package main

import "github.com/samscott89/rudy-sub002/cmd/rudyinfo"

func main() {
	rudyinfo.Execute()
}
