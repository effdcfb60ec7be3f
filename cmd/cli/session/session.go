// Package session holds the commands that play the game.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/myrjola/unsolved/internal/bootstrap"
	"github.com/myrjola/unsolved/internal/cases"
	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/game"
	"github.com/myrjola/unsolved/internal/pprofserver"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "session",
	Title: "Playing",
}

func init() {
	Play.Flags().String("case", "case1", "case to investigate")
	Play.Flags().Duration("simulate", 0, "advance the game by this much virtual time and exit instead of playing in real time")
	Play.Flags().Float64("start-hour", -1, "in-game hour to start at, overrides UNSOLVED_START_HOUR")
	Play.Flags().Int("save-slot", 0, "manual slot to save into on exit, 0 to skip")
	Play.Flags().String("debug-addr", "", "loopback address serving pprof and metrics, e.g. localhost:6060")

	Evidence.Flags().Int("open", 1, "how many times to open the evidence")
}

var Play = &cobra.Command{
	Use:     "play",
	GroupID: "session",
	Short:   "Play a case",
	Long:    `Starts a case and prints everything the game presents until interrupted or the simulated time is over.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		rt, err := bootstrap.FromEnv(ctx, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

		caseID, _ := cmd.Flags().GetString("case")
		simulate, _ := cmd.Flags().GetDuration("simulate")
		startHour, _ := cmd.Flags().GetFloat64("start-hour")
		slot, _ := cmd.Flags().GetInt("save-slot")
		debugAddr, _ := cmd.Flags().GetString("debug-addr")

		if debugAddr != "" {
			if _, err = pprofserver.Launch(ctx, debugAddr, rt.Registry, rt.Logger); err != nil {
				return err
			}
		}

		out := &lockedWriter{w: cmd.OutOrStdout()}
		done := printEvents(rt, out)
		rt.Game.Present(ctx)
		if startHour >= 0 {
			if _, err = rt.Game.SetTime(ctx, startHour); err != nil {
				return err
			}
		}
		kase, err := rt.Game.StartCase(ctx, caseID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s\n%s\nVictim: %s\n", kase.Name, kase.Description, kase.Victim)

		if simulate > 0 {
			rt.Game.Advance(ctx, simulate)
		} else {
			rt.Game.Run(ctx, time.Second)
		}

		if slot > 0 {
			result, saveErr := rt.Game.Save(context.WithoutCancel(ctx), slot)
			if saveErr != nil {
				return saveErr
			}
			_, _ = fmt.Fprintf(out, "saved to %s\n", result.Key)
		}
		err = rt.Close(context.WithoutCancel(ctx))
		<-done
		return err
	},
}

var Evidence = &cobra.Command{
	Use:     "evidence [case] [evidence]",
	GroupID: "session",
	Short:   "Examine evidence",
	Long:    `Opens the evidence and shows it. Evidence handled too often starts to change and may fight back.`,
	Args:    cobra.ExactArgs(2), //nolint:mnd // case and evidence
	RunE: func(cmd *cobra.Command, args []string) error {
		times, _ := cmd.Flags().GetInt("open")
		if times < 1 {
			return errors.New("--open must be at least 1", slog.Int("open", times))
		}
		return withCase(cmd, args[0], func(ctx context.Context, rt *bootstrap.Runtime) error {
			var p cases.Presentation
			for range times {
				var err error
				if p, err = rt.Game.CollectEvidence(ctx, args[1]); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			printPresentation(out, p)
			_, _ = fmt.Fprintf(out, "Sanity: %d\n", rt.Game.State().Sanity.Overall())
			return nil
		})
	},
}

var Interview = &cobra.Command{
	Use:     "interview [case] [suspect] [topic...]",
	GroupID: "session",
	Short:   "Question a suspect",
	Long:    `Asks the suspect about each topic in order within one interview. Without topics the known topics are listed.`,
	Args:    cobra.MinimumNArgs(2), //nolint:mnd // case and suspect
	RunE: func(cmd *cobra.Command, args []string) error {
		suspect := args[1]
		return withCase(cmd, args[0], func(ctx context.Context, rt *bootstrap.Runtime) error {
			out := cmd.OutOrStdout()
			if len(args) == 2 { //nolint:mnd // no topics given
				topics, err := rt.Game.Topics(suspect)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%s can talk about: %s\n", suspect, strings.Join(topics, ", "))
				return nil
			}
			for _, topic := range args[2:] {
				reply, err := rt.Game.DiscussTopic(ctx, suspect, topic)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%s %s on %s: %s\n", reply.Emotion.Icon(), suspect, topic, reply.Text)
				if reply.LieDetected {
					_, _ = fmt.Fprintln(out, "  (something about that answer does not add up)")
				}
			}
			return rt.Game.EndInterview(ctx, suspect)
		})
	},
}

var Accuse = &cobra.Command{
	Use:     "accuse [case] [suspect]",
	GroupID: "session",
	Short:   "Accuse a suspect",
	Args:    cobra.ExactArgs(2), //nolint:mnd // case and suspect
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCase(cmd, args[0], func(ctx context.Context, rt *bootstrap.Runtime) error {
			result, err := rt.Game.Accuse(ctx, args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		})
	},
}

// withCase starts caseID in a fresh runtime and runs fn against it.
func withCase(cmd *cobra.Command, caseID string, fn func(ctx context.Context, rt *bootstrap.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := bootstrap.FromEnv(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()
	if _, err = rt.Game.StartCase(ctx, caseID); err != nil {
		return err
	}
	return fn(ctx, rt)
}

// lockedWriter serializes writes from the event printer and the command itself.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// printEvents writes every presentation event to w until the broker stops.
func printEvents(rt *bootstrap.Runtime, w io.Writer) <-chan struct{} {
	_, events := rt.Events.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			_, _ = fmt.Fprintln(w, FormatEvent(e))
		}
	}()
	return done
}

// FormatEvent renders e as one line of text.
func FormatEvent(e game.Event) string {
	switch e.Kind {
	case game.EventMood:
		if len(e.Layers) == 0 {
			return fmt.Sprintf("[mood] %s", e.Mood)
		}
		layers := make([]string, 0, len(e.Layers))
		for _, l := range e.Layers {
			layers = append(layers, fmt.Sprintf("%s %.1f", l.Track, l.Volume))
		}
		return fmt.Sprintf("[mood] %s (%s)", e.Mood, strings.Join(layers, ", "))
	case game.EventSanityEffects:
		return fmt.Sprintf("[sanity] %d", e.Sanity)
	case game.EventWhisper:
		return fmt.Sprintf("[whisper] %s", e.Text)
	case game.EventOverlay:
		return fmt.Sprintf("[overlay] %.1f %s", e.Opacity, e.Intensity)
	case game.EventGlitch:
		return "[glitch]"
	case game.EventDeveloperMessage:
		return fmt.Sprintf("[developer] %s", e.Text)
	}
	return fmt.Sprintf("[%s]", e.Kind)
}

func printPresentation(w io.Writer, p cases.Presentation) {
	_, _ = fmt.Fprintln(w, p.Title)
	if p.Text != "" {
		_, _ = fmt.Fprintln(w, p.Text)
	}
	for i, fragment := range p.Fragments {
		_, _ = fmt.Fprintf(w, "  fragment %d: %s\n", i+1, fragment)
	}
	if p.Redacted {
		_, _ = fmt.Fprintln(w, "  [DNA analysis pending]")
	}
	if p.Hostile {
		_, _ = fmt.Fprintln(w, "  The file flinches when you touch it.")
	}
}
