package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Alia5/padbridge/profile"
)

// ProfileCommand groups device profile subcommands.
type ProfileCommand struct {
	List ProfileList `cmd:"" help:"List built-in device profiles"`
	Show ProfileShow `cmd:"" help:"Print a device profile; a good starting point for a custom profile file"`
}

type ProfileList struct{}

func (c *ProfileList) Run() error {
	return c.write(os.Stdout)
}

func (c *ProfileList) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tCHARACTERISTIC\tDESCRIPTION")
	for _, name := range profile.Names() {
		p, _ := profile.Lookup(name)
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Characteristic, p.Description)
	}
	return tw.Flush()
}

type ProfileShow struct {
	Name   string `arg:"" optional:"" help:"Built-in profile name or profile file" default:"gamesir-t1d"`
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
}

func (c *ProfileShow) Run() error {
	return c.write(os.Stdout)
}

func (c *ProfileShow) write(w io.Writer) error {
	p, err := profile.Resolve(c.Name)
	if err != nil {
		return err
	}
	data, err := profile.Marshal(p, normalizeFormat(c.Format))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
