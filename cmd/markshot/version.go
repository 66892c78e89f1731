package main

import (
	"flag"
	"fmt"
)

type versionCmd struct{ *root }

func (v *versionCmd) FlagSet() *flag.FlagSet { return nil }
func (v *versionCmd) Program() string        { return v.root.subProgram("version") }

func (v *versionCmd) Run() error {
	fmt.Printf("%s version %s", v.root.name(), version)
	if commit != "" {
		fmt.Printf(" (%s", commit)
		if date != "" {
			fmt.Printf(", %s", date)
		}
		fmt.Print(")")
	}
	fmt.Println()
	return nil
}
