package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/unsolved/cmd/cli/saves"
	"github.com/myrjola/unsolved/cmd/cli/session"
	"github.com/myrjola/unsolved/internal/errors"
	"github.com/spf13/cobra"
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(session.Group)
	rootCmd.AddCommand(session.Play, session.Evidence, session.Interview, session.Accuse)
	rootCmd.AddGroup(saves.Group)
	rootCmd.AddCommand(saves.List, saves.Load, saves.Repair, saves.Delete, saves.Reload)
}

var rootCmd = &cobra.Command{
	Use:  "unsolved",
	Long: `UNSOLVED, a detective game that remembers, decays and watches you reload.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
