package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/gallery/internal/buildinfo"
	"github.com/dmitrijs2005/gallery/internal/server"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	os.Exit(server.Main(context.Background(), os.Stderr))

}
