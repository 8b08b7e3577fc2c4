package main

import "github.com/goplus/iosbuild/cmd/iosbuild/internal"

func main() {
	internal.Execute()
}
