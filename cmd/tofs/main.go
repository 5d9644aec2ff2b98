// Command tofs works with floppy disk images from the shell.
package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	app := newApp(afero.NewOsFs(), os.Stdout, log)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(hostFs afero.Fs, out io.Writer, log *logrus.Logger) *cli.App {
	t := &tool{hostFs: hostFs, out: out, log: log}

	return &cli.App{
		Name:   appName,
		Usage:  "read and write floppy disk images",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "the YAML config file",
			},
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "the disk image, overrides the configuration",
			},
		},
		Before: t.configure,
		Commands: []*cli.Command{{
			Name:    "ls",
			Aliases: []string{"dir"},
			Usage:   "list the files of the volume",
			Action:  t.list,
		}, {
			Name:      "cat",
			Usage:     "print a file",
			ArgsUsage: "NAME",
			Action:    t.cat,
		}, {
			Name:      "put",
			Usage:     "copy a host file onto the volume",
			ArgsUsage: "HOSTFILE [NAME]",
			Flags: []cli.Flag{&cli.StringFlag{
				Name:  "type",
				Usage: "the file type as 4 hex digits, derived from the suffix by default",
			}},
			Action: t.put,
		}, {
			Name:      "get",
			Usage:     "copy a file of the volume to the host",
			ArgsUsage: "NAME [HOSTFILE]",
			Action:    t.get,
		}, {
			Name:      "rm",
			Aliases:   []string{"del"},
			Usage:     "delete files",
			ArgsUsage: "NAME...",
			Action:    t.remove,
		}, {
			Name:      "mv",
			Aliases:   []string{"ren"},
			Usage:     "rename a file",
			ArgsUsage: "OLD NEW",
			Action:    t.rename,
		}, {
			Name:      "comment",
			Usage:     "set the comment of a file, a (TTTT) or (TTTTEEEE) prefix sets the type",
			ArgsUsage: "NAME COMMENT",
			Action:    t.comment,
		}, {
			Name:      "truncate",
			Usage:     "cut or extend a file",
			ArgsUsage: "NAME SIZE",
			Action:    t.truncate,
		}, {
			Name:      "label",
			Usage:     "change the volume name",
			ArgsUsage: "NAME",
			Action:    t.label,
		}, {
			Name:      "format",
			Usage:     "format the image, every file is lost",
			ArgsUsage: "[LABEL]",
			Action:    t.format,
		}, {
			Name:      "mkimage",
			Usage:     "create a new, formatted image",
			ArgsUsage: "[LABEL]",
			Action:    t.makeImage,
		}, {
			Name:   "info",
			Usage:  "show the volume name, the geometry and the free space",
			Action: t.info,
		}},
	}
}
