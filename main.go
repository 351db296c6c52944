package main

import (
	"fmt"
	"os"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/config"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "shop",
		Usage: "cart, checkout and order service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API and the notification worker",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address, overrides SHOP_HTTP_ADDR"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					if addr := c.String("addr"); addr != "" {
						cfg.HTTPAddr = addr
					}
					return serve(c.Context, cfg)
				},
			},
			{
				Name:  "migrate",
				Usage: "apply the MySQL schema migrations and exit",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}
					return migrate(c.Context, cfg)
				},
			},
			{
				Name:  "env",
				Usage: "print the recognised environment variables",
				Action: func(*cli.Context) error {
					return config.Usage()
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
