// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/diffeo/go-jsonhome/aggregator"
	"github.com/diffeo/go-jsonhome/jsonhome"
	"github.com/diffeo/go-jsonhome/registry"
	"github.com/diffeo/go-jsonhome/restclient"
	"github.com/diffeo/go-jsonhome/restdata"
)

func newClient(c *cli.Context) *restclient.Client {
	return restclient.New(restclient.Options{
		Timeout: c.GlobalDuration("timeout"),
		Logger:  logrus.StandardLogger(),
	})
}

// printHome writes a catalog to the application's output in the
// variant selected by the global --json flag.
func printHome(c *cli.Context, home *jsonhome.JSONHome) error {
	mediaType := restdata.DirectoryMediaType
	if c.GlobalBool("json") {
		mediaType = restdata.JSONMediaType
	}
	err := restdata.Encode(c.App.Writer, restdata.FromJSONHome(home, mediaType))
	if err == nil {
		_, err = fmt.Fprintln(c.App.Writer)
	}
	return err
}

var fetchCommand = cli.Command{
	Name:      "fetch",
	Usage:     "fetch and print one directory",
	ArgsUsage: "href",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return errors.New("fetch needs exactly one href")
		}
		client := newClient(c)
		defer client.Shutdown()
		home, err := client.Get(context.Background(), c.Args().First())
		if err != nil {
			return err
		}
		return printHome(c, home)
	},
}

var varsCommand = cli.Command{
	Name:      "vars",
	Usage:     "list the variables of URI templates",
	ArgsUsage: "template...",
	Action: func(c *cli.Context) error {
		for _, template := range c.Args() {
			names, err := jsonhome.TemplateVariables(template)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(c.App.Writer, name)
			}
		}
		return nil
	},
}

var expandCommand = cli.Command{
	Name:      "expand",
	Usage:     "find a resource in a directory and print its address",
	ArgsUsage: "href [name=value...]",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "rel",
			Usage: "relation type of the resource",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return errors.New("expand needs a directory href")
		}
		rel := jsonhome.RelationType(c.String("rel"))
		if rel == "" {
			return errors.New("expand needs --rel")
		}
		values := make(map[string]interface{})
		for _, arg := range c.Args().Tail() {
			parts := strings.SplitN(arg, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("variable %q is not name=value", arg)
			}
			values[parts[0]] = parts[1]
		}

		client := newClient(c)
		defer client.Shutdown()
		home, err := client.Get(context.Background(), c.Args().First())
		if err != nil {
			return err
		}
		link, present := home.Resource(rel)
		if !present {
			return fmt.Errorf("no resource %v in directory", rel)
		}
		var href string
		switch l := link.(type) {
		case jsonhome.DirectLink:
			href = l.Href()
		case jsonhome.TemplatedLink:
			u, err := l.Expand(values)
			if err != nil {
				return err
			}
			href = u.String()
		}
		_, err = fmt.Fprintln(c.App.Writer, href)
		return err
	},
}

var aggregateCommand = cli.Command{
	Name:      "aggregate",
	Usage:     "merge several directories and print the result",
	ArgsUsage: "href...",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "concurrency",
			Value: 1,
			Usage: "fetch this many directories at once",
		},
		cli.IntFlag{
			Name:  "attempts",
			Value: 1,
			Usage: "fetch a failing directory up to this many times",
		},
		cli.DurationFlag{
			Name:  "backoff",
			Usage: "wait this long between attempts",
		},
	},
	Action: func(c *cli.Context) error {
		sources := make([]registry.Source, 0, c.NArg())
		for _, href := range c.Args() {
			source := registry.Source{Href: href}
			if err := source.Validate(); err != nil {
				return err
			}
			sources = append(sources, source)
		}

		client := newClient(c)
		defer client.Shutdown()
		agg := aggregator.New(client, aggregator.Options{
			Concurrency: c.Int("concurrency"),
			Retry: aggregator.RetryPolicy{
				Attempts: c.Int("attempts"),
				Backoff:  c.Duration("backoff"),
			},
		})
		result, err := agg.Refresh(context.Background(), sources)
		if err != nil {
			return err
		}
		for _, outcome := range result.Outcomes {
			fmt.Fprintf(c.App.ErrWriter, "%v\t%v\t%v resources", outcome.Source.Href, outcome.State, outcome.Resources)
			if outcome.Err != nil {
				fmt.Fprintf(c.App.ErrWriter, "\t%v", outcome.Err)
			}
			fmt.Fprintln(c.App.ErrWriter)
		}
		return printHome(c, result.Home)
	},
}
