package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/goosemania/pulp-2to3-migrate/pkg/cmd"
)

var version = "dev"

func main() {
	if err := cmd.NewRootCommand(version).ExecuteContext(context.Background()); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
