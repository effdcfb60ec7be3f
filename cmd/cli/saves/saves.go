// Package saves holds the commands that inspect and fix save files.
package saves

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/myrjola/unsolved/internal/bootstrap"
	"github.com/myrjola/unsolved/internal/scumguard"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "saves",
	Title: "Save files",
}

func init() {
	Reload.Flags().Bool("continue", false, "ignore a save scumming warning and double the corruption chance")
	Reload.Flags().Bool("abort", false, "heed a save scumming warning and reset the reload counter")
	Reload.MarkFlagsMutuallyExclusive("continue", "abort")
	Load.Flags().Bool("anyway", false, "load without verification and keep playing on corrupted data")
}

var List = &cobra.Command{
	Use:     "list",
	GroupID: "saves",
	Short:   "List saves",
	Long:    `Lists the manual save slots followed by the autosaves, newest first.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
			infos, err := rt.Game.Saves(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // column padding
			_, _ = fmt.Fprintln(w, "KEY\tSAVED\tCASE\tSANITY\tEVIDENCE\tSTATUS")
			for _, info := range infos {
				status := "ok"
				if info.Corrupted {
					status = "corrupted"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					info.Key,
					time.UnixMilli(info.Timestamp).Format(time.DateTime),
					info.Case,
					info.Sanity,
					info.EvidenceCount,
					status)
			}
			return w.Flush()
		})
	},
}

var Load = &cobra.Command{
	Use:     "load [key]",
	GroupID: "saves",
	Short:   "Verify a save",
	Long:    `Loads a save the way the game does and reports its state or why it is corrupted.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		anyway, _ := cmd.Flags().GetBool("anyway")
		return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
			var err error
			if anyway {
				err = rt.Game.ContinueAnyway(ctx, args[0])
			} else {
				err = rt.Game.Load(ctx, args[0])
			}
			if err != nil {
				return err
			}
			state := rt.Game.State()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "case %s at %.1fh, sanity %d, %d evidence, corruption warning %t\n",
				state.CurrentCase, rt.Game.Now(), state.Sanity.Overall(), len(state.CollectedEvidence),
				state.CorruptionWarning)
			return nil
		})
	},
}

var Repair = &cobra.Command{
	Use:     "repair [key]",
	GroupID: "saves",
	Short:   "Repair a corrupted save",
	Long:    `Restores the backup embedded in a corrupted save.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
			if err := rt.Game.Repair(ctx, args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "repaired %s\n", args[0])
			return nil
		})
	},
}

var Delete = &cobra.Command{
	Use:     "delete [key]",
	GroupID: "saves",
	Short:   "Delete a save",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
			if err := rt.Game.DeleteSave(ctx, args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

var Reload = &cobra.Command{
	Use:     "reload",
	GroupID: "saves",
	Short:   "Record a reload",
	Long: `Counts a reload the way the game does on start and answers a save scumming warning if one is raised.
Carrying on doubles the save corruption chance. The new chance is stored and applies to every later run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		carryOn, _ := cmd.Flags().GetBool("continue")
		abort, _ := cmd.Flags().GetBool("abort")
		return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
			out := cmd.OutOrStdout()
			verdict, activity, err := rt.Game.RecordReload(ctx)
			if err != nil {
				return err
			}
			if verdict != scumguard.VerdictWarn {
				_, _ = fmt.Fprintf(out, "reload %d recorded\n", activity.Count)
				return nil
			}
			_, _ = fmt.Fprintln(out, scumguard.WarningText(activity.Count))
			switch {
			case carryOn:
				if err = rt.Game.ResolveScumWarning(ctx, true); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%s\ncorruption chance is now %.2f\n",
					scumguard.ContinueMessage, rt.Game.CorruptionChance())
			case abort:
				if err = rt.Game.ResolveScumWarning(ctx, false); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, "reload counter reset")
			}
			return nil
		})
	},
}

func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *bootstrap.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := bootstrap.FromEnv(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()
	return fn(ctx, rt)
}
