package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mylxsw/short-link/internal/client"
	"github.com/mylxsw/short-link/internal/config"
	"github.com/urfave/cli"
)

var Version = "1.0"
var GitCommit = "5dbef13fb456f51a5d29464d"

func main() {
	app := cli.NewApp()
	app.Name = "short-link"
	app.Usage = "short-link 命令行客户端"
	app.Version = fmt.Sprintf("%s %s", Version, GitCommit)
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "conf", Value: "", Usage: "客户端配置文件"},
		cli.StringFlag{Name: "server", Value: "", Usage: "服务器地址，覆盖配置文件中的 server"},
	}

	app.Commands = []cli.Command{
		{
			Name:      "shorten",
			Usage:     "创建短链接",
			ArgsUsage: "[url]",
			Action: func(c *cli.Context) error {
				target := c.Args().First()
				if target == "" {
					if err := survey.AskOne(&survey.Input{Message: "URL to shorten:"}, &target, survey.WithValidator(survey.Required)); err != nil {
						return err
					}
				}

				cl, err := newClientFromContext(c)
				if err != nil {
					return err
				}

				created, err := cl.Shorten(strings.TrimSpace(target))
				if err != nil {
					return err
				}

				fmt.Printf("%s -> %s\n", created.ShortURL, created.OriginalURL)
				return nil
			},
		},
		{
			Name:      "clicks",
			Usage:     "查询短链接访问次数",
			ArgsUsage: "<short_id>",
			Action: func(c *cli.Context) error {
				shortID, err := requiredArg(c)
				if err != nil {
					return err
				}

				cl, err := newClientFromContext(c)
				if err != nil {
					return err
				}

				clicks, err := cl.Clicks(shortID)
				if err != nil {
					return err
				}

				fmt.Printf("%s: %d\n", shortID, clicks)
				return nil
			},
		},
		{
			Name:      "delete",
			Usage:     "删除短链接，标识符进入复用池",
			ArgsUsage: "<short_id>",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "yes, y", Usage: "跳过确认"},
			},
			Action: func(c *cli.Context) error {
				shortID, err := requiredArg(c)
				if err != nil {
					return err
				}

				if !c.Bool("yes") {
					confirmed := false
					if err := survey.AskOne(&survey.Confirm{Message: fmt.Sprintf("Delete %s?", shortID)}, &confirmed); err != nil {
						return err
					}
					if !confirmed {
						return nil
					}
				}

				cl, err := newClientFromContext(c)
				if err != nil {
					return err
				}

				if err := cl.Delete(shortID); err != nil {
					return err
				}

				fmt.Printf("%s deleted\n", shortID)
				return nil
			},
		},
		{
			Name:  "list",
			Usage: "列出使用中的短链接",
			Action: func(c *cli.Context) error {
				cl, err := newClientFromContext(c)
				if err != nil {
					return err
				}

				ids, err := cl.Links()
				if err != nil {
					return err
				}

				printLines(ids)
				return nil
			},
		},
		{
			Name:  "pool",
			Usage: "列出复用池中的标识符",
			Action: func(c *cli.Context) error {
				cl, err := newClientFromContext(c)
				if err != nil {
					return err
				}

				ids, err := cl.ReusePool()
				if err != nil {
					return err
				}

				printLines(ids)
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newClientFromContext(c *cli.Context) (*client.Client, error) {
	conf, err := config.LoadClientConfFromFile(c.GlobalString("conf"))
	if err != nil {
		return nil, err
	}

	merged := conf.WithServer(c.GlobalString("server"))
	return client.New(&merged), nil
}

func requiredArg(c *cli.Context) (string, error) {
	arg := strings.TrimSpace(c.Args().First())
	if arg == "" {
		return "", errors.New("short_id is required")
	}
	return arg, nil
}

func printLines(lines []string) {
	for _, line := range lines {
		fmt.Println(line)
	}
}
