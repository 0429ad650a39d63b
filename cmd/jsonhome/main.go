// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Jsonhome is a command-line client for JSON Home directories.
//
//     jsonhome fetch http://example.com/
//     jsonhome vars 'http://example.com/widgets/{id}{?q}'
//     jsonhome expand --rel http://example.com/rel/widget http://example.com/ id=17
//     jsonhome aggregate http://one.example.com/ http://two.example.com/
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/diffeo/go-jsonhome/restclient"
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "jsonhome"
	app.Usage = "inspect and combine JSON Home directories"
	app.Flags = []cli.Flag{
		cli.DurationFlag{
			Name:  "timeout",
			Value: restclient.DefaultTimeout,
			Usage: "give up on a directory fetch after this long",
		},
		cli.BoolFlag{
			Name:  "json",
			Usage: "print plain JSON with descriptions instead of application/json-home",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "log every fetch",
		},
	}
	app.Commands = []cli.Command{
		fetchCommand,
		varsCommand,
		expandCommand,
		aggregateCommand,
	}
	app.Before = func(c *cli.Context) error {
		if c.Bool("verbose") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	}
	app.ErrWriter = os.Stderr
	app.HideVersion = true
	return app
}

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("jsonhome failed")
	}
}
