package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	// VersionMajor is the major number in graft's version
	VersionMajor = 0
	// VersionMinor is the minor number in graft's version
	VersionMinor = 1
	// VersionPatch is the patch number in graft's version
	VersionPatch = 0
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of graft",
		Long:  `All software has versions. This is graft's`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("graft v%d.%d.%d\n", VersionMajor, VersionMinor, VersionPatch)
		},
	}
}
